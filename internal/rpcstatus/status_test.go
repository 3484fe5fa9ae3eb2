package rpcstatus

import (
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestEncodeDecodeRoundTripKnownCodes(t *testing.T) {
	tests := []struct {
		code     int
		typeName string
		wantKind Kind
	}{
		{code: CodeAccountServiceError, typeName: "AccountServiceException", wantKind: KindAccountServiceError},
		{code: CodeResourceNotFound, typeName: "ResourceNotFoundException", wantKind: KindResourceNotFound},
		{code: CodeAccountLookupFailed, typeName: "AccountLookupException", wantKind: KindAccountLookupFailed},
		{code: CodeUserServiceError, typeName: "UserServiceException", wantKind: KindUserServiceError},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			md, transportErr := Encode(RemoteStatus{
				Code:     tt.code,
				TypeName: tt.typeName,
				Message:  "account is dormant",
			})
			if transportErr == nil {
				t.Fatal("expected a transport-level error alongside the metadata")
			}

			decoded := Decode(md)
			if decoded.Kind != tt.wantKind {
				t.Fatalf("expected kind %s, got %s", tt.wantKind, decoded.Kind)
			}
			if decoded.Code != tt.code {
				t.Fatalf("expected code %d, got %d", tt.code, decoded.Code)
			}
			if decoded.TypeName != tt.typeName {
				t.Fatalf("expected type %q, got %q", tt.typeName, decoded.TypeName)
			}
			if decoded.Message != "account is dormant" {
				t.Fatalf("unexpected message %q", decoded.Message)
			}
		})
	}
}

func TestDecodeUnknownCodeDegradesToUnsupported(t *testing.T) {
	md, _ := Encode(RemoteStatus{Code: 9999, TypeName: "MysteryException", Message: "what"})

	decoded := Decode(md)
	if decoded.Kind != KindUnsupported {
		t.Fatalf("expected unsupported kind, got %s", decoded.Kind)
	}
	// The original payload is preserved for logging even when unmapped.
	if decoded.Code != 9999 || decoded.TypeName != "MysteryException" {
		t.Fatalf("unexpected decoded error: %+v", decoded)
	}
}

func TestDecodeNonIntegerCodeNeverPanics(t *testing.T) {
	md := metadata.Pairs(
		"x-ssok-status-code", "not-a-number",
		"x-ssok-exception-type", "AccountServiceException",
		"x-ssok-message", "broken header",
	)

	decoded := Decode(md)
	if decoded.Kind != KindUnsupported {
		t.Fatalf("expected unsupported kind, got %s", decoded.Kind)
	}
	if decoded.Message != "broken header" {
		t.Fatalf("expected message preserved, got %q", decoded.Message)
	}
}

func TestDecodeAbsentMetadataIsMetadataInvalid(t *testing.T) {
	decoded := Decode(metadata.MD{})
	if decoded.Kind != KindMetadataInvalid {
		t.Fatalf("expected metadata_invalid kind, got %s", decoded.Kind)
	}
}

func TestEncodeDerivesTransportCodeFromHTTPStatus(t *testing.T) {
	tests := []struct {
		httpStatus int
		want       codes.Code
	}{
		{httpStatus: 0, want: codes.InvalidArgument},
		{httpStatus: 400, want: codes.InvalidArgument},
		{httpStatus: 404, want: codes.NotFound},
		{httpStatus: 409, want: codes.Aborted},
		{httpStatus: 418, want: codes.InvalidArgument},
		{httpStatus: 500, want: codes.Internal},
		{httpStatus: 503, want: codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("http_%d", tt.httpStatus), func(t *testing.T) {
			_, err := Encode(RemoteStatus{Code: CodeAccountServiceError, HTTPStatus: tt.httpStatus})
			if got := status.Code(err); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("resolve account: %w", &Error{Kind: KindResourceNotFound, Code: CodeResourceNotFound})

	if !IsKind(err, KindResourceNotFound) {
		t.Fatal("expected wrapped error to match its kind")
	}
	if IsKind(err, KindUserServiceError) {
		t.Fatal("expected kind mismatch to be reported")
	}
	if IsKind(fmt.Errorf("plain failure"), KindResourceNotFound) {
		t.Fatal("expected non-status error to never match")
	}
}
