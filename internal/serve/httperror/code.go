package httperror

const (
	Code400_0 = "400_0" // Invalid request body.
	Code400_1 = "400_1" // Invalid query parameters.
	Code409_0 = "409_0" // A tenant already uses the tenant ID or the email.
	Code409_1 = "409_1" // The tenant status does not allow the operation.
	Code409_2 = "409_2" // The database still belongs to a registered tenant.
	Code500_0 = "500_0" // An internal error occurred while processing this request.
	Code503_0 = "503_0" // A database could not be reached.
)
