// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess         = "success"
	KeyError           = "error"
	KeyInternalError   = "internal_error"
	KeyTooManyRequests = "too_many_requests"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthAccountInactive    = "auth.account_inactive"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthPasswordChanged    = "auth.password_changed"

	// User Management
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"
	KeyUserCreated        = "user.created"
	KeyUserDeleted        = "user.deleted"

	// Catalog
	KeyPigCreated      = "pig.created"
	KeyPigUpdated      = "pig.updated"
	KeyPigDeleted      = "pig.deleted"
	KeyPigNotFound     = "pig.not_found"
	KeyPigNotAvailable = "pig.not_available"

	// Cart
	KeyCartItemAdded    = "cart.item_added"
	KeyCartItemExists   = "cart.item_exists"
	KeyCartItemRemoved  = "cart.item_removed"
	KeyCartItemUpdated  = "cart.item_updated"
	KeyCartItemNotFound = "cart.item_not_found"
	KeyCartCheckedOut   = "cart.checked_out"
	KeyCartNoSelection  = "cart.no_selection"

	// Reservations
	KeyReservationCreated   = "reservation.created"
	KeyReservationUpdated   = "reservation.updated"
	KeyReservationNotFound  = "reservation.not_found"
	KeyReservationAccepted  = "reservation.accepted"
	KeyReservationDeclined  = "reservation.declined"
	KeyReservationCancelled = "reservation.cancelled"
	KeyReservationCompleted = "reservation.completed"
	KeyPurchaseCreated      = "purchase.created"

	// Payments
	KeyPaymentProofUploaded = "payment.proof_uploaded"

	// Feedback
	KeyFeedbackSubmitted = "feedback.submitted"
	KeyFeedbackNotFound  = "feedback.not_found"

	// Messaging
	KeyConversationNotFound = "message.conversation_not_found"
	KeyConversationDeleted  = "message.conversation_deleted"
	KeyMessageSent          = "message.sent"

	// Notifications
	KeyNotificationNotFound = "notification.not_found"
	KeyNotificationRead     = "notification.read"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"
	KeyValidationFailed  = "validation.failed"
	KeyConflict          = "conflict"
	KeyForbidden         = "forbidden"
	KeyNotFound          = "not_found"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"
	KeyFileRequired     = "file.required"
)
