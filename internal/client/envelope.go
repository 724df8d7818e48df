package client

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/kjstillabower/kma-forecast-service/internal/models"
)

// resultCode accepts the envelope's resultCode as either "00" or 0.
// An empty string is rejected; a JSON null leaves the field unset.
type resultCode int

func (r *resultCode) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" {
		return fmt.Errorf("result code is empty")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("result code %q: %w", s, err)
	}
	*r = resultCode(n)
	return nil
}

// itemList tolerates `"items": ""`, which the API sends for empty pages.
type itemList struct {
	Item []models.RawForecastItem `json:"item"`
}

func (l *itemList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == '"' || bytes.Equal(b, []byte("null")) {
		l.Item = nil
		return nil
	}
	type plain itemList
	return json.Unmarshal(b, (*plain)(l))
}

type forecastResponse struct {
	Response struct {
		Header *struct {
			ResultCode *resultCode `json:"resultCode"`
			ResultMsg  string      `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			DataType   string   `json:"dataType"`
			Items      itemList `json:"items"`
			PageNo     int      `json:"pageNo"`
			NumOfRows  int      `json:"numOfRows"`
			TotalCount int      `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// gatewayFault is the XML body returned by the API gateway for key and quota
// errors, regardless of the requested dataType. Some deployments also answer
// with an XML <response> envelope, which shares the header fields.
type gatewayFault struct {
	XMLName      xml.Name
	CmmMsgHeader struct {
		ErrMsg           string `xml:"errMsg"`
		ReturnAuthMsg    string `xml:"returnAuthMsg"`
		ReturnReasonCode string `xml:"returnReasonCode"`
	} `xml:"cmmMsgHeader"`
	Header struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
}

// page is a decoded response: its result code, message, total count and items.
type page struct {
	resultCode int
	resultMsg  string
	totalCount int
	items      []models.RawForecastItem
}

func decodePage(body []byte) (page, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return decodeFault(trimmed)
	}

	var resp forecastResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return page{}, fmt.Errorf("%w: parse response: %w", ErrTransport, err)
	}
	header := resp.Response.Header
	if header == nil || header.ResultCode == nil {
		return page{}, fmt.Errorf("%w: parse response: missing response.header.resultCode", ErrTransport)
	}
	return page{
		resultCode: int(*header.ResultCode),
		resultMsg:  header.ResultMsg,
		totalCount: resp.Response.Body.TotalCount,
		items:      resp.Response.Body.Items.Item,
	}, nil
}

func decodeFault(body []byte) (page, error) {
	var fault gatewayFault
	if err := xml.Unmarshal(body, &fault); err != nil {
		return page{}, fmt.Errorf("%w: parse xml response: %w", ErrTransport, err)
	}

	code, msg := fault.CmmMsgHeader.ReturnReasonCode, fault.CmmMsgHeader.ReturnAuthMsg
	if code == "" {
		code, msg = fault.Header.ResultCode, fault.Header.ResultMsg
	}
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return page{}, fmt.Errorf("%w: parse xml response: result code %q", ErrTransport, code)
	}
	if n == ResultOK {
		return page{}, fmt.Errorf("%w: parse response: unexpected xml body for %s", ErrTransport, fault.XMLName.Local)
	}
	return page{resultCode: n, resultMsg: msg}, nil
}
