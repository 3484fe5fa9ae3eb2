package domain

// TransferType tags a notification event with the direction (and method)
// of the completed transfer, from the recipient's point of view.
type TransferType string

const (
	TransferTypeCredit          TransferType = "CREDIT"
	TransferTypeDebit           TransferType = "DEBIT"
	TransferTypeProximityCredit TransferType = "PROXIMITY_CREDIT"
	TransferTypeProximityDebit  TransferType = "PROXIMITY_DEBIT"
)

// NotificationEvent is the payload published to the notification topic once
// per completed transfer. Delivery is at-least-once; the consumer owns any
// deduplication it needs beyond these natural fields.
type NotificationEvent struct {
	UserID       int64        `json:"userId"`
	AccountID    int64        `json:"accountId"`
	SenderName   string       `json:"senderName"`
	BankCode     int          `json:"bankCode"`
	Amount       int64        `json:"amount"`
	TransferType TransferType `json:"transferType"`
}
