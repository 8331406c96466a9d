// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	pkgerrors "github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

// CallerHeader names the account a request acts for.
const CallerHeader = "X-Caller"

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

func (e *httpError) Unwrap() error {
	return e.cause
}

// HTTPError create an error with http status code.
func HTTPError(cause error, status int) error {
	return &httpError{
		cause:  cause,
		status: status,
	}
}

// BadRequest convenience method to create http bad request error.
func BadRequest(cause error) error {
	return HTTPError(cause, http.StatusBadRequest)
}

// Forbidden convenience method to create http forbidden error.
func Forbidden(cause error) error {
	return HTTPError(cause, http.StatusForbidden)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Category string `json:"category,omitempty"`
	Data     string `json:"data,omitempty"` // abi encoded Error(string)
}

// RevertStatus maps a revert to the http status reported for it.
func RevertStatus(re *reverts.ErrRevert) int {
	switch {
	case errors.Is(re, reverts.ErrRuleNotFound),
		errors.Is(re, reverts.ErrStakeNotFound),
		errors.Is(re, reverts.ErrRequestNotFound):
		return http.StatusNotFound
	}
	switch re.Category() {
	case reverts.Validation, reverts.Timing:
		return http.StatusBadRequest
	case reverts.State:
		return http.StatusConflict
	case reverts.UnderlyingAsset:
		return http.StatusPaymentRequired
	case reverts.Access:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Error: err.Error()}

	var he *httpError
	if errors.As(err, &he) {
		status = he.status
	}
	if re, ok := reverts.AsRevert(err); ok {
		if he == nil {
			status = RevertStatus(re)
		}
		body.Code = re.Code()
		body.Category = re.Category().String()
		body.Data = hexutil.Encode(re.Bytes())
	}

	w.Header().Set("Content-Type", JSONContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&body)
}

// HandlerFunc like http.HandlerFunc, bu it returns an error.
// If the returned error is httpError type, httpError.status will be responded,
// reverts are mapped by RevertStatus, otherwise http.StatusInternalServerError responded.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc convert HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			writeError(w, err)
		}
	}
}

// content types
const (
	JSONContentType = "application/json; charset=utf-8"
)

// ParseJSON parse a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON response an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}

// Caller returns the account named by the X-Caller header.
func Caller(r *http.Request) (thor.Address, error) {
	v := r.Header.Get(CallerHeader)
	if v == "" {
		return thor.Address{}, Forbidden(pkgerrors.New("missing " + CallerHeader + " header"))
	}
	addr, err := thor.ParseAddress(v)
	if err != nil {
		return thor.Address{}, BadRequest(pkgerrors.WithMessage(err, CallerHeader))
	}
	return *addr, nil
}

// M shortcut for type map[string]any.
type M map[string]any
