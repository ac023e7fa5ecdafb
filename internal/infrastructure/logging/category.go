package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	IO              Category = "IO"
	Internal        Category = "Internal"
	Mongo           Category = "Mongo"
	RabbitMQ        Category = "RabbitMQ"
	Relay           Category = "Relay"
	Webhook         Category = "Webhook"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Prometheus      Category = "Prometheus"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Relay
	Connect    SubCategory = "Connect"
	Disconnect SubCategory = "Disconnect"
	RoomJoin   SubCategory = "RoomJoin"
	Delivery   SubCategory = "Delivery"

	// Webhook
	Signature SubCategory = "Signature"
	Lifecycle SubCategory = "Lifecycle"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	HostIp       ExtraKey = "HostIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	BodySize     ExtraKey = "BodySize"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
	UserID       ExtraKey = "UserID"
	ConnectionID ExtraKey = "ConnectionID"
	RoomID       ExtraKey = "RoomID"
	EventName    ExtraKey = "EventName"
)
