package models

// RequestType константы типов заявок на услуги
const (
	RequestTypeConstruction = "construction"
	RequestTypeRenovation   = "renovation"
	RequestTypeRental       = "rental"
	RequestTypeBuySell      = "buy_sell"
)

// RequestStatus константы статусов заявок
const (
	RequestStatusPending    = "pending"
	RequestStatusAccepted   = "accepted"
	RequestStatusRejected   = "rejected"
	RequestStatusInProgress = "in_progress"
	RequestStatusCompleted  = "completed"
	RequestStatusCancelled  = "cancelled"
)

// Роли пользователей
const (
	RoleClient   = "client"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// PropertyKind константы типов объявлений
const (
	PropertyKindSale = "sale"
	PropertyKindRent = "rent"
)

// PropertyStatus константы статусов объявлений
const (
	PropertyStatusActive   = "active"
	PropertyStatusArchived = "archived"
)

// NotificationKind константы видов уведомлений
const (
	NotificationKindInfo    = "info"
	NotificationKindSuccess = "success"
	NotificationKindWarning = "warning"
	NotificationKindAdmin   = "admin"
)

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleClient:   {},
	RoleProvider: {},
	RoleAdmin:    {},
}

// ValidPropertyKinds список валидных типов объявлений
var ValidPropertyKinds = map[string]struct{}{
	PropertyKindSale: {},
	PropertyKindRent: {},
}

// ValidRequestTypes список валидных типов заявок
var ValidRequestTypes = map[string]struct{}{
	RequestTypeConstruction: {},
	RequestTypeRenovation:   {},
	RequestTypeRental:       {},
	RequestTypeBuySell:      {},
}

// ValidRequestStatuses список валидных статусов заявок
var ValidRequestStatuses = map[string]struct{}{
	RequestStatusPending:    {},
	RequestStatusAccepted:   {},
	RequestStatusRejected:   {},
	RequestStatusInProgress: {},
	RequestStatusCompleted:  {},
	RequestStatusCancelled:  {},
}

// TerminalRequestStatuses статусы, из которых заявка уже не выходит.
var TerminalRequestStatuses = map[string]struct{}{
	RequestStatusRejected:  {},
	RequestStatusCompleted: {},
	RequestStatusCancelled: {},
}

// IsTerminalStatus проверяет, является ли статус терминальным.
func IsTerminalStatus(status string) bool {
	_, ok := TerminalRequestStatuses[status]
	return ok
}
