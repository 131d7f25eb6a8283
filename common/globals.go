package common

const (
	TransactionTypeInvoice = "invoice"
	TransactionTypePayment = "payment"

	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusExpired   = "expired"
	StatusFailed    = "failed"

	SourceNode  = "node"
	SourceStore = "store"

	// pubsub topics
	TopicIncoming = "incoming"
	TopicOutgoing = "outgoing"

	SubscriptionConsumerGRPC     = "grpc"
	SubscriptionConsumerRabbitMQ = "rabbitmq"

	IdempotencyKeyHeader = "Idempotency-Key"

	DefaultPageSize = 20
	MaxPageSize     = 100
)
