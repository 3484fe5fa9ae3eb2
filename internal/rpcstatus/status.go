/**
 * @description
 * This package is the status codec used at every RPC boundary. A failing
 * call carries a structured remote status out-of-band in trailer metadata
 * (application code, originating type name, message) rather than in the
 * response body. Encode turns a domain status into that metadata plus a
 * transport-level error; Decode turns the metadata back into a typed local
 * error, so callers branch on error kinds instead of string matching.
 *
 * @dependencies
 * - google.golang.org/grpc/codes, metadata, status: Transport status plumbing.
 */

package rpcstatus

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Trailer metadata keys carrying the remote status triple.
const (
	codeKey    = "x-ssok-status-code"
	typeKey    = "x-ssok-exception-type"
	messageKey = "x-ssok-message"
)

// Application status codes shared by all services. The table is closed:
// a code outside it decodes to the unsupported kind, never silently.
const (
	CodeAccountServiceError = 2001
	CodeResourceNotFound    = 2002
	CodeAccountLookupFailed = 2003
	CodeUserServiceError    = 2004
)

// Kind classifies a decoded remote failure.
type Kind int

const (
	// KindUnsupported is produced for any application code outside the
	// known table, or a code field that does not parse as an integer.
	KindUnsupported Kind = iota
	// KindMetadataInvalid is produced when the status metadata is entirely
	// absent, so a transport-level failure stays distinguishable from an
	// application-level one.
	KindMetadataInvalid
	KindAccountServiceError
	KindResourceNotFound
	KindAccountLookupFailed
	KindUserServiceError
)

func (k Kind) String() string {
	switch k {
	case KindMetadataInvalid:
		return "metadata_invalid"
	case KindAccountServiceError:
		return "account_service_error"
	case KindResourceNotFound:
		return "resource_not_found"
	case KindAccountLookupFailed:
		return "account_lookup_failed"
	case KindUserServiceError:
		return "user_service_error"
	default:
		return "unsupported_code"
	}
}

var kindByCode = map[int]Kind{
	CodeAccountServiceError: KindAccountServiceError,
	CodeResourceNotFound:    KindResourceNotFound,
	CodeAccountLookupFailed: KindAccountLookupFailed,
	CodeUserServiceError:    KindUserServiceError,
}

// RemoteStatus is the structured failure a callee attaches to an RPC
// response. HTTPStatus is the associated HTTP-like status used to derive
// the transport code; zero falls back to 400.
type RemoteStatus struct {
	Code       int
	TypeName   string
	Message    string
	HTTPStatus int
}

// Error is the typed local exception reconstructed from trailer metadata.
type Error struct {
	Kind     Kind
	Code     int
	TypeName string
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote status %s (code=%d type=%s): %s", e.Kind, e.Code, e.TypeName, e.Message)
}

// Encode writes the status triple into trailer metadata and derives the
// transport-level error the callee should return alongside it.
func Encode(st RemoteStatus) (metadata.MD, error) {
	md := metadata.Pairs(
		codeKey, strconv.Itoa(st.Code),
		typeKey, st.TypeName,
		messageKey, st.Message,
	)
	httpStatus := st.HTTPStatus
	if httpStatus == 0 {
		httpStatus = 400
	}
	return md, status.Error(transportCode(httpStatus), st.Message)
}

// Decode reads the status triple back out of trailer metadata. It never
// fails: malformed metadata degrades to the unsupported kind, absent
// metadata to the metadata-invalid kind.
func Decode(md metadata.MD) *Error {
	codeVals := md.Get(codeKey)
	typeVals := md.Get(typeKey)
	msgVals := md.Get(messageKey)

	if len(codeVals) == 0 && len(typeVals) == 0 && len(msgVals) == 0 {
		log.Printf("level=warn component=rpcstatus msg=\"status metadata absent on failed call\"")
		return &Error{Kind: KindMetadataInvalid, Message: "remote status metadata missing"}
	}

	typeName := first(typeVals)
	message := first(msgVals)
	log.Printf("level=warn component=rpcstatus msg=\"decoding remote status\" type=%s code=%q message=%q",
		typeName, first(codeVals), message)

	code, err := strconv.Atoi(first(codeVals))
	if err != nil {
		log.Printf("level=warn component=rpcstatus msg=\"status code not an integer\" value=%q err=%v", first(codeVals), err)
		return &Error{Kind: KindUnsupported, TypeName: typeName, Message: message}
	}

	kind, ok := kindByCode[code]
	if !ok {
		kind = KindUnsupported
	}
	return &Error{Kind: kind, Code: code, TypeName: typeName, Message: message}
}

// transportCode maps an HTTP-like status onto the transport status code
// used to carry the failed response.
func transportCode(httpStatus int) codes.Code {
	switch httpStatus {
	case 400:
		return codes.InvalidArgument
	case 401:
		return codes.Unauthenticated
	case 403:
		return codes.PermissionDenied
	case 404:
		return codes.NotFound
	case 408:
		return codes.DeadlineExceeded
	case 409:
		return codes.Aborted
	case 503:
		return codes.Unavailable
	default:
		if httpStatus >= 500 {
			return codes.Internal
		}
		return codes.InvalidArgument
	}
}

// TransportCode exposes the mapping for callees that need the bare code.
func TransportCode(httpStatus int) codes.Code {
	if httpStatus == 0 {
		httpStatus = 400
	}
	return transportCode(httpStatus)
}

// IsKind reports whether err is a decoded remote status of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Kind == kind
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
