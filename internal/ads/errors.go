package ads

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	adserrors "github.com/shenzhencenter/google-ads-pb/errors"
)

// ErrorKind classifies vendor failures at the gateway boundary. Vendor
// exception types never cross the package boundary.
type ErrorKind int

const (
	ErrKindValidation ErrorKind = iota
	ErrKindAuth
	ErrKindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindValidation:
		return "validation"
	case ErrKindAuth:
		return "auth"
	case ErrKindTransport:
		return "transport"
	}
	return "unknown"
}

// Error is the closed error type returned by the vendor client.
type Error struct {
	Kind     ErrorKind
	Messages []string
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, "; ")
}

// NewError builds a gateway error of the given kind.
func NewError(kind ErrorKind, messages ...string) *Error {
	return &Error{Kind: kind, Messages: messages}
}

// wrapRPCError maps a gRPC call failure into the closed error-kind set.
// GoogleAdsFailure details are flattened into their human-readable messages;
// anything else is classified by status code.
func wrapRPCError(err error) *Error {
	st, ok := status.FromError(err)
	if !ok {
		return &Error{Kind: ErrKindTransport, Messages: []string{err.Error()}}
	}

	var msgs []string
	for _, d := range st.Details() {
		if failure, ok := d.(*adserrors.GoogleAdsFailure); ok {
			for _, e := range failure.GetErrors() {
				msgs = append(msgs, e.GetMessage())
			}
		}
	}

	kind := kindForCode(st.Code())
	if len(msgs) == 0 {
		msgs = []string{st.Message()}
	}
	return &Error{Kind: kind, Messages: msgs}
}

func kindForCode(code codes.Code) ErrorKind {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange,
		codes.AlreadyExists, codes.NotFound, codes.ResourceExhausted:
		return ErrKindValidation
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrKindAuth
	default:
		return ErrKindTransport
	}
}

// errorStrings extracts the message list from any error coming back from the
// vendor client, so results carry human-readable strings only.
func errorStrings(err error) []string {
	if gerr, ok := err.(*Error); ok {
		return gerr.Messages
	}
	return []string{err.Error()}
}
