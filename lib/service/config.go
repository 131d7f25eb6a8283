package service

type Config struct {
	DatabaseUri                      string  `envconfig:"DATABASE_URI" required:"true"`
	DatabaseMaxConns                 int     `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns             int     `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime          int     `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	SentryDSN                        string  `envconfig:"SENTRY_DSN"`
	DatadogAgentUrl                  string  `envconfig:"DATADOG_AGENT_URL"`
	SentryTracesSampleRate           float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	LogFilePath                      string  `envconfig:"LOG_FILE_PATH"`
	ApiToken                         string  `envconfig:"API_TOKEN"`
	Host                             string  `envconfig:"HOST" default:"localhost:3000"`
	Port                             int     `envconfig:"PORT" default:"3000"`
	DefaultRateLimit                 int     `envconfig:"DEFAULT_RATE_LIMIT" default:"10"`
	StrictRateLimit                  int     `envconfig:"STRICT_RATE_LIMIT" default:"10"`
	BurstRateLimit                   int     `envconfig:"BURST_RATE_LIMIT" default:"1"`
	EnablePrometheus                 bool    `envconfig:"ENABLE_PROMETHEUS" default:"false"`
	PrometheusPort                   int     `envconfig:"PROMETHEUS_PORT" default:"9092"`
	WebhookUrl                       string  `envconfig:"WEBHOOK_URL"`
	DefaultInvoiceExpiry             int64   `envconfig:"DEFAULT_INVOICE_EXPIRY" default:"3600"` // in seconds
	MinInvoiceExpiry                 int64   `envconfig:"MIN_INVOICE_EXPIRY" default:"60"`
	MaxInvoiceExpiry                 int64   `envconfig:"MAX_INVOICE_EXPIRY" default:"86400"`
	MaxFeeAmount                     int64   `envconfig:"MAX_FEE_AMOUNT" default:"5000"`
	PaymentTimeout                   int     `envconfig:"PAYMENT_TIMEOUT" default:"60"`                 // in seconds
	NodeCallTimeout                  int     `envconfig:"NODE_CALL_TIMEOUT" default:"10"`               // in seconds
	PendingPaymentCheckInterval      int     `envconfig:"PENDING_PAYMENT_CHECK_INTERVAL" default:"300"` // in seconds, 0 runs the check once at startup
	UnknownPaymentFailAfter          int     `envconfig:"UNKNOWN_PAYMENT_FAIL_AFTER" default:"3600"`    // in seconds, 0 keeps such payments pending
	SubscriptionConsumerType         string  `envconfig:"SUBSCRIPTION_CONSUMER_TYPE" default:"grpc"`
	RabbitMQUri                      string  `envconfig:"RABBITMQ_URI"`
	RabbitMQLnpayEventExchange       string  `envconfig:"RABBITMQ_EVENT_EXCHANGE" default:"lnpay_event"`
	RabbitMQLndInvoiceExchange       string  `envconfig:"RABBITMQ_LND_INVOICE_EXCHANGE" default:"lnd_invoice"`
	RabbitMQInvoiceConsumerQueueName string  `envconfig:"RABBITMQ_INVOICE_CONSUMER_QUEUE_NAME" default:"lnd_invoice_consumer"`
}
