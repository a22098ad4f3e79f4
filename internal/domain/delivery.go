package domain

// DeliveryOutcome records the result of one send attempt to one resolved
// address. Outcomes are independent: a failure for one target never erases
// the outcome of a sibling in the same request.
type DeliveryOutcome struct {
	To           string `json:"to"`
	ToNormalized string `json:"to_normalized,omitempty"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	MessageID    string `json:"message_id,omitempty"`
}

// AllSucceeded reports the aggregate success of a batch: the logical AND of
// every outcome. An empty batch is not a success.
func AllSucceeded(outcomes []DeliveryOutcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if !o.Success {
			return false
		}
	}
	return true
}
