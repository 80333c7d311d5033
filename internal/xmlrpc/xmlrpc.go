// Copyright 2024-2026 Rapyuta Robotics

// Package xmlrpc is a minimal XML-RPC client for the ROS 1 master and
// ROS 2 CLI daemon APIs. Both speak a small subset of XML-RPC: string,
// int, boolean and heterogeneous array values, with struct values only
// appearing in faults. Responses are exposed as cursor-style Values
// because the ROS APIs return nested arrays of mixed types that do not
// map onto static Go types.
package xmlrpc

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Client calls one XML-RPC endpoint.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a client for the given endpoint URL.
func NewClient(url string) *Client {
	return &Client{url: url, http: http.DefaultClient}
}

// NewClientWithHTTP creates a client using a custom HTTP client.
func NewClientWithHTTP(url string, httpClient *http.Client) *Client {
	return &Client{url: url, http: httpClient}
}

// Fault is a decoded XML-RPC fault response.
type Fault struct {
	Code   int
	String string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("xmlrpc fault %d: %s", f.Code, f.String)
}

// Call invokes method with the given arguments and returns the single
// response value. Supported argument types: string, int, bool, []string
// and []any (nested).
func (c *Client) Call(ctx context.Context, method string, args ...any) (Value, error) {
	body, err := encodeCall(method, args)
	if err != nil {
		return Value{}, fmt.Errorf("xmlrpc: encode %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Value{}, fmt.Errorf("xmlrpc: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return Value{}, fmt.Errorf("xmlrpc: call %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Value{}, fmt.Errorf("xmlrpc: call %s: unexpected status %s", method, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Value{}, fmt.Errorf("xmlrpc: read %s response: %w", method, err)
	}
	return decodeResponse(method, data)
}

func encodeCall(method string, args []any) ([]byte, error) {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<methodCall><methodName>")
	writeEscaped(&b, method)
	b.WriteString("</methodName><params>")
	for _, arg := range args {
		b.WriteString("<param>")
		if err := encodeValue(&b, arg); err != nil {
			return nil, err
		}
		b.WriteString("</param>")
	}
	b.WriteString("</params></methodCall>")
	return []byte(b.String()), nil
}

func encodeValue(b *strings.Builder, v any) error {
	b.WriteString("<value>")
	switch arg := v.(type) {
	case string:
		b.WriteString("<string>")
		writeEscaped(b, arg)
		b.WriteString("</string>")
	case int:
		b.WriteString("<int>")
		b.WriteString(strconv.Itoa(arg))
		b.WriteString("</int>")
	case bool:
		if arg {
			b.WriteString("<boolean>1</boolean>")
		} else {
			b.WriteString("<boolean>0</boolean>")
		}
	case []string:
		b.WriteString("<array><data>")
		for _, elem := range arg {
			if err := encodeValue(b, elem); err != nil {
				return err
			}
		}
		b.WriteString("</data></array>")
	case []any:
		b.WriteString("<array><data>")
		for _, elem := range arg {
			if err := encodeValue(b, elem); err != nil {
				return err
			}
		}
		b.WriteString("</data></array>")
	default:
		return fmt.Errorf("unsupported argument type %T", v)
	}
	b.WriteString("</value>")
	return nil
}

func writeEscaped(b *strings.Builder, s string) {
	// EscapeText on a strings.Builder never fails.
	_ = xml.EscapeText(b, []byte(s))
}

type methodResponse struct {
	XMLName xml.Name `xml:"methodResponse"`
	Params  *struct {
		Values []xmlValue `xml:"param>value"`
	} `xml:"params"`
	Fault *struct {
		Value xmlValue `xml:"value"`
	} `xml:"fault"`
}

type xmlValue struct {
	Int     *string    `xml:"int"`
	I4      *string    `xml:"i4"`
	Boolean *string    `xml:"boolean"`
	Str     *string    `xml:"string"`
	Double  *string    `xml:"double"`
	Array   *xmlArray  `xml:"array"`
	Struct  *xmlStruct `xml:"struct"`
	Raw     string     `xml:",chardata"`
}

type xmlArray struct {
	Values []xmlValue `xml:"data>value"`
}

type xmlStruct struct {
	Members []xmlMember `xml:"member"`
}

type xmlMember struct {
	Name  string   `xml:"name"`
	Value xmlValue `xml:"value"`
}

func decodeResponse(method string, data []byte) (Value, error) {
	var resp methodResponse
	if err := xml.Unmarshal(data, &resp); err != nil {
		return Value{}, fmt.Errorf("xmlrpc: decode %s response: %w", method, err)
	}
	if resp.Fault != nil {
		fault := &Fault{}
		value := Value{v: &resp.Fault.Value}
		if code, ok := value.StructMember("faultCode"); ok {
			fault.Code, _ = code.Int()
		}
		if msg, ok := value.StructMember("faultString"); ok {
			fault.String, _ = msg.String()
		}
		return Value{}, fmt.Errorf("xmlrpc: call %s: %w", method, fault)
	}
	if resp.Params == nil || len(resp.Params.Values) == 0 {
		return Value{}, fmt.Errorf("xmlrpc: %s response has no value", method)
	}
	return Value{v: &resp.Params.Values[0]}, nil
}

// Value is a cursor over one decoded XML-RPC value.
type Value struct {
	v *xmlValue
}

// Int returns the value as an int.
func (v Value) Int() (int, bool) {
	if v.v == nil {
		return 0, false
	}
	raw := v.v.Int
	if raw == nil {
		raw = v.v.I4
	}
	if raw == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool returns the value as a bool.
func (v Value) Bool() (bool, bool) {
	if v.v == nil || v.v.Boolean == nil {
		return false, false
	}
	switch strings.TrimSpace(*v.v.Boolean) {
	case "1":
		return true, true
	case "0":
		return false, true
	}
	return false, false
}

// String returns the value as a string. Bare values with no type element
// are strings per the XML-RPC spec.
func (v Value) String() (string, bool) {
	if v.v == nil {
		return "", false
	}
	if v.v.Str != nil {
		return *v.v.Str, true
	}
	if v.v.Int == nil && v.v.I4 == nil && v.v.Boolean == nil &&
		v.v.Double == nil && v.v.Array == nil && v.v.Struct == nil {
		return strings.TrimSpace(v.v.Raw), true
	}
	return "", false
}

// Slice returns the value's array elements.
func (v Value) Slice() ([]Value, bool) {
	if v.v == nil || v.v.Array == nil {
		return nil, false
	}
	out := make([]Value, len(v.v.Array.Values))
	for i := range v.v.Array.Values {
		out[i] = Value{v: &v.v.Array.Values[i]}
	}
	return out, true
}

// StructMember returns the named member of a struct value.
func (v Value) StructMember(name string) (Value, bool) {
	if v.v == nil || v.v.Struct == nil {
		return Value{}, false
	}
	for i := range v.v.Struct.Members {
		if v.v.Struct.Members[i].Name == name {
			return Value{v: &v.v.Struct.Members[i].Value}, true
		}
	}
	return Value{}, false
}
