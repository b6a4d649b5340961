package checkout

// Wire-level names. These match the original service contract, so running
// gateways and workers can be upgraded independently.
const (
	WorkflowName = "terminos_y_condiciones"

	UpdateAddItem          = "agregar_item_seguro"
	UpdateCompletePurchase = "completar_compra"

	SignalRemoveItem      = "remover_item_carrito"
	SignalAcceptTerms     = "aceptar_terminos"
	SignalConfirmDelivery = "confirmar_recepcion"
	SignalCancel          = "cancelar_compra"

	QueryState = "obtener_estado"

	ActivityCheckStock        = "verificar_stock"
	ActivityDispatchShipment  = "despachar_envio"
	ActivityPublishTransition = "publicar_transicion"
	ActivityArchivePurchase   = "archivar_compra"
)

const workflowIDPrefix = "terminos-workflow-"

// WorkflowID maps an owner to its single purchase instance.
func WorkflowID(ownerID string) string {
	return workflowIDPrefix + ownerID
}

// OwnerFromWorkflowID inverts WorkflowID. Returns "" for foreign ids.
func OwnerFromWorkflowID(workflowID string) string {
	if len(workflowID) <= len(workflowIDPrefix) || workflowID[:len(workflowIDPrefix)] != workflowIDPrefix {
		return ""
	}
	return workflowID[len(workflowIDPrefix):]
}
