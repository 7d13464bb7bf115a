package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010

	// Bid rejection codes. Deterministic and caller-facing, never retried.
	AuctionNotOpen Code = 200001
	AuctionClosed  Code = 200002
	BidTooLow      Code = 200003
	DuplicateBid   Code = 200004
	SameBidder     Code = 200005

	// Contention is transient. Callers may retry with backoff.
	Contention Code = 200006
)
