package client

import (
	"fmt"
)

// Severity classifies an upstream result code. The HTTP boundary projects it to a status.
type Severity string

// Severity values, one per class of the upstream error catalogue.
const (
	SeverityClientMisconfiguration Severity = "client_misconfiguration"
	SeverityTemporaryUnavailable   Severity = "temporary_unavailable"
	SeverityNotSupported           Severity = "not_supported"
	SeverityUnauthorized           Severity = "unauthorized"
	SeverityRateLimited            Severity = "rate_limited"
	SeverityNoData                 Severity = "no_data"
	SeverityUnknown                Severity = "unknown"
)

// ResultOK is the envelope result code of a successful response.
const ResultOK = 0

// Upstream result codes as published in the open-data error catalogue.
const (
	ResultApplicationError         = 1
	ResultDBError                  = 2
	ResultNoData                   = 3
	ResultHTTPError                = 4
	ResultServiceTimeout           = 5
	ResultInvalidRequestParameter  = 10
	ResultMissingRequiredParameter = 11
	ResultServiceNotFound          = 12
	ResultServiceAccessDenied      = 20
	ResultServiceKeyDisabled       = 21
	ResultRequestLimitExceeded     = 22
	ResultServiceKeyNotRegistered  = 30
	ResultServiceKeyExpired        = 31
	ResultUnregisteredIP           = 32
	ResultUnsignedCall             = 33
	ResultUnknownError             = 99
)

// User-facing messages. These strings are returned verbatim to API consumers.
const (
	msgResourceProblem = "공공기관의 자원에 문제가 생겼습니다. 복구된다면 정상 응답을 받아올 수 있습니다."
	msgNoData          = "데이터가 없습니다."
	msgServerProblem   = "서버에 문제가 발생했습니다. 빠른 시일 내에 수정하겠습니다."
	msgNotSupported    = "서비스를 더 이상 제공하지 않습니다."
	msgAuthFailed      = "공공기관 인증에 실패하였습니다."
	msgDailyLimit      = "공공기관 데이터 일일 요청 횟수를 초과하였습니다"
	msgUnknown         = "알 수 없는 에러"
	msgUnknownCodeFmt  = "알수 없는 에러. ErrorCode: %d"
)

// UnknownErrorMessage is the user-facing message for failures that carry no result code.
const UnknownErrorMessage = msgUnknown

type resultClass struct {
	severity Severity
	message  string
}

var resultCodes = map[int]resultClass{
	ResultApplicationError:         {SeverityClientMisconfiguration, ""},
	ResultDBError:                  {SeverityTemporaryUnavailable, msgResourceProblem},
	ResultNoData:                   {SeverityNoData, msgNoData},
	ResultHTTPError:                {SeverityTemporaryUnavailable, msgResourceProblem},
	ResultServiceTimeout:           {SeverityTemporaryUnavailable, msgResourceProblem},
	ResultInvalidRequestParameter:  {SeverityTemporaryUnavailable, msgServerProblem},
	ResultMissingRequiredParameter: {SeverityTemporaryUnavailable, msgServerProblem},
	ResultServiceNotFound:          {SeverityNotSupported, msgNotSupported},
	ResultServiceAccessDenied:      {SeverityUnauthorized, msgAuthFailed},
	ResultServiceKeyDisabled:       {SeverityUnauthorized, msgAuthFailed},
	ResultRequestLimitExceeded:     {SeverityRateLimited, msgDailyLimit},
	ResultServiceKeyNotRegistered:  {SeverityUnauthorized, msgAuthFailed},
	ResultServiceKeyExpired:        {SeverityUnauthorized, msgAuthFailed},
	ResultUnregisteredIP:           {SeverityUnauthorized, msgAuthFailed},
	ResultUnsignedCall:             {SeverityUnauthorized, msgAuthFailed},
	ResultUnknownError:             {SeverityUnknown, msgUnknown},
}

// UpstreamError is a non-zero result code reported in the upstream response envelope.
type UpstreamError struct {
	ResultCode int
	Severity   Severity
	Message    string
	// ResultMsg is the upstream's own resultMsg, kept for logs only.
	ResultMsg string
}

func (e *UpstreamError) Error() string {
	if e.ResultMsg != "" {
		return fmt.Sprintf("upstream result code %d (%s): %s", e.ResultCode, e.Severity, e.ResultMsg)
	}
	return fmt.Sprintf("upstream result code %d (%s)", e.ResultCode, e.Severity)
}

// MapResultCode returns the structured error for a non-zero result code.
// Codes outside the catalogue map to SeverityUnknown with the code in the message.
func MapResultCode(code int) *UpstreamError {
	if class, ok := resultCodes[code]; ok {
		return &UpstreamError{ResultCode: code, Severity: class.severity, Message: class.message}
	}
	return &UpstreamError{
		ResultCode: code,
		Severity:   SeverityUnknown,
		Message:    fmt.Sprintf(msgUnknownCodeFmt, code),
	}
}
