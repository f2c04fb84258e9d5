package httpx

type ctxKey string

const (
	// CtxKeyAccountID carries the numeric id of the authenticated account.
	CtxKeyAccountID ctxKey = "account_id"
	// CtxKeyClientID carries the public client_id the bearer token belongs to.
	CtxKeyClientID ctxKey = "client_id"
)
