package domain

import (
	"bytes"

	"github.com/tidwall/gjson"
)

// StrategyStoreList names the single decode attempt for store-list bodies.
const StrategyStoreList = "store-list"

// DecodeStoresResponse decodes a {success, count?, data: [store], error?}
// body into store records. The body must be well-formed JSON; truncated or
// trailing-garbage payloads fail as corrupted. Individual store objects never
// fail (see BuildStoreRecord), and out-of-range numbers such as 1e999 degrade
// only their own field.
func DecodeStoresResponse(body []byte) ([]StoreRecord, error) {
	stores, failure := decodeStoreList(body)
	if failure != nil {
		failure.Strategy = StrategyStoreList
		return nil, &DecodeError{Attempts: []DecodeFailure{*failure}}
	}
	return stores, nil
}

func decodeStoreList(body []byte) ([]StoreRecord, *DecodeFailure) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &DecodeFailure{Kind: FailureCorrupted, Detail: "expected a JSON object"}
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, &DecodeFailure{Kind: FailureCorrupted, Detail: "body is not valid JSON"}
	}
	root := gjson.ParseBytes(trimmed)

	success := root.Get("success")
	switch {
	case !success.Exists():
		return nil, &DecodeFailure{Kind: FailureMissingKey, Detail: `key "success" not found`}
	case success.Type == gjson.Null:
		return nil, &DecodeFailure{Kind: FailureValueNotFound, Detail: `key "success" is null`}
	case success.Type != gjson.True && success.Type != gjson.False:
		return nil, &DecodeFailure{Kind: FailureTypeMismatch, Detail: "success: expected bool, got " + success.Type.String()}
	}
	if !success.Bool() {
		msg := root.Get("error").String()
		detail := "success is false"
		if msg != "" {
			detail += ": " + msg
		}
		return nil, &DecodeFailure{Kind: FailureUnsuccessful, Detail: detail}
	}

	data := root.Get("data")
	switch {
	case !data.Exists():
		return nil, &DecodeFailure{Kind: FailureMissingKey, Detail: `key "data" not found`}
	case data.Type == gjson.Null:
		return nil, &DecodeFailure{Kind: FailureValueNotFound, Detail: `key "data" is null`}
	case !data.IsArray():
		return nil, &DecodeFailure{Kind: FailureTypeMismatch, Detail: "data: expected array, got " + data.Type.String()}
	}
	return BuildStoreRecords(data), nil
}
