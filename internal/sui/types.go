package sui

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SuiCoinType is the native gas coin.
const SuiCoinType = "0x2::sui::SUI"

// ClockObjectID is the shared system clock object.
const ClockObjectID = "0x6"

// EventID is the cursor of an event page.
type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// Event is a Move event as returned by suix_queryEvents.
type Event struct {
	ID                EventID         `json:"id"`
	PackageID         string          `json:"packageId"`
	TransactionModule string          `json:"transactionModule"`
	Sender            string          `json:"sender"`
	Type              string          `json:"type"`
	ParsedJSON        json.RawMessage `json:"parsedJson,omitempty"`
	BCS               string          `json:"bcs,omitempty"`
	TimestampMs       string          `json:"timestampMs,omitempty"`
}

// EventPage is one page of suix_queryEvents.
type EventPage struct {
	Data        []Event  `json:"data"`
	NextCursor  *EventID `json:"nextCursor"`
	HasNextPage bool     `json:"hasNextPage"`
}

// EventFilter selects events; only one field should be set.
type EventFilter struct {
	MoveEventType string `json:"MoveEventType,omitempty"`
	Sender        string `json:"Sender,omitempty"`
	Transaction   string `json:"Transaction,omitempty"`
	Package       string `json:"Package,omitempty"`
}

// TransactionBlockOptions mirrors the show* flags of the read API.
type TransactionBlockOptions struct {
	ShowInput          bool `json:"showInput,omitempty"`
	ShowRawInput       bool `json:"showRawInput,omitempty"`
	ShowEffects        bool `json:"showEffects,omitempty"`
	ShowEvents         bool `json:"showEvents,omitempty"`
	ShowObjectChanges  bool `json:"showObjectChanges,omitempty"`
	ShowBalanceChanges bool `json:"showBalanceChanges,omitempty"`
}

// FullTransactionOptions is what every tool asks for after executing a transaction.
var FullTransactionOptions = TransactionBlockOptions{
	ShowInput:         true,
	ShowEffects:       true,
	ShowEvents:        true,
	ShowObjectChanges: true,
}

// ObjectDataOptions mirrors the show* flags of sui_getObject.
type ObjectDataOptions struct {
	ShowType                bool `json:"showType,omitempty"`
	ShowOwner               bool `json:"showOwner,omitempty"`
	ShowPreviousTransaction bool `json:"showPreviousTransaction,omitempty"`
	ShowDisplay             bool `json:"showDisplay,omitempty"`
	ShowContent             bool `json:"showContent,omitempty"`
	ShowBcs                 bool `json:"showBcs,omitempty"`
	ShowStorageRebate       bool `json:"showStorageRebate,omitempty"`
}

// ObjectRef identifies an object version.
type ObjectRef struct {
	ObjectID string      `json:"objectId"`
	Version  json.Number `json:"version"`
	Digest   string      `json:"digest"`
}

// OwnedObjectRef pairs a reference with its owner as reported in effects.
type OwnedObjectRef struct {
	Owner     json.RawMessage `json:"owner"`
	Reference ObjectRef       `json:"reference"`
}

// ExecutionStatus is effects.status.
type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Success reports whether the transaction executed without aborting.
func (s ExecutionStatus) Success() bool { return s.Status == "success" }

// Effects carries the parts of transaction effects the tools read.
type Effects struct {
	Status  ExecutionStatus  `json:"status"`
	Created []OwnedObjectRef `json:"created,omitempty"`
	Mutated []OwnedObjectRef `json:"mutated,omitempty"`
	GasUsed json.RawMessage  `json:"gasUsed,omitempty"`
}

// ObjectChange is one entry of objectChanges. PackageID and Modules are set for "published".
type ObjectChange struct {
	Type       string          `json:"type"`
	Sender     string          `json:"sender,omitempty"`
	Owner      json.RawMessage `json:"owner,omitempty"`
	ObjectType string          `json:"objectType,omitempty"`
	ObjectID   string          `json:"objectId,omitempty"`
	PackageID  string          `json:"packageId,omitempty"`
	Version    json.Number     `json:"version,omitempty"`
	Digest     string          `json:"digest,omitempty"`
	Modules    []string        `json:"modules,omitempty"`
}

// TransactionBlockResponse is returned by sui_getTransactionBlock and sui_executeTransactionBlock.
type TransactionBlockResponse struct {
	Digest        string          `json:"digest"`
	Transaction   json.RawMessage `json:"transaction,omitempty"`
	Effects       *Effects        `json:"effects,omitempty"`
	Events        []Event         `json:"events,omitempty"`
	ObjectChanges []ObjectChange  `json:"objectChanges,omitempty"`
	Checkpoint    string          `json:"checkpoint,omitempty"`
	TimestampMs   string          `json:"timestampMs,omitempty"`
	Errors        []string        `json:"errors,omitempty"`
}

// MoveContent is the content of a Move object.
type MoveContent struct {
	DataType          string                     `json:"dataType"`
	Type              string                     `json:"type"`
	HasPublicTransfer bool                       `json:"hasPublicTransfer"`
	Fields            map[string]json.RawMessage `json:"fields"`
}

// Field decodes a named Move field into v.
func (m *MoveContent) Field(name string, v any) error {
	if m == nil {
		return fmt.Errorf("object has no content")
	}
	raw, ok := m.Fields[name]
	if !ok {
		return fmt.Errorf("field %q not found", name)
	}
	return json.Unmarshal(raw, v)
}

// FieldUint64 reads a u64 field, which the node renders as a decimal string.
func (m *MoveContent) FieldUint64(name string) (uint64, error) {
	var v json.Number
	if err := m.Field(name, &v); err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", name, err)
	}
	return n, nil
}

// ObjectData is sui_getObject's data.
type ObjectData struct {
	ObjectID string          `json:"objectId"`
	Version  json.Number     `json:"version"`
	Digest   string          `json:"digest"`
	Type     string          `json:"type,omitempty"`
	Owner    json.RawMessage `json:"owner,omitempty"`
	Content  *MoveContent    `json:"content,omitempty"`
	Display  json.RawMessage `json:"display,omitempty"`
}

// ObjectError is returned in place of data for deleted or missing objects.
type ObjectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id,omitempty"`
}

// ObjectResponse is the envelope of sui_getObject.
type ObjectResponse struct {
	Data  *ObjectData  `json:"data,omitempty"`
	Error *ObjectError `json:"error,omitempty"`
}

// Coin is one coin object from suix_getCoins.
type Coin struct {
	CoinType            string      `json:"coinType"`
	CoinObjectID        string      `json:"coinObjectId"`
	Version             json.Number `json:"version"`
	Digest              string      `json:"digest"`
	Balance             json.Number `json:"balance"`
	PreviousTransaction string      `json:"previousTransaction"`
}

// BalanceMist parses the coin balance.
func (c Coin) BalanceMist() (uint64, error) {
	return strconv.ParseUint(c.Balance.String(), 10, 64)
}

// CoinPage is one page of suix_getCoins.
type CoinPage struct {
	Data        []Coin  `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// Balance is suix_getBalance.
type Balance struct {
	CoinType        string      `json:"coinType"`
	CoinObjectCount int         `json:"coinObjectCount"`
	TotalBalance    json.Number `json:"totalBalance"`
}

// TransactionBytes is what the transaction-builder methods return: unsigned BCS bytes, base64.
type TransactionBytes struct {
	TxBytes      string          `json:"txBytes"`
	Gas          []ObjectRef     `json:"gas"`
	InputObjects json.RawMessage `json:"inputObjects,omitempty"`
}

// MoveCallRequest describes a Move call for unsafe_moveCall.
type MoveCallRequest struct {
	Signer        string
	PackageID     string
	Module        string
	Function      string
	TypeArguments []string
	Arguments     []any
	Gas           string // empty lets the node pick a gas coin
	GasBudget     uint64
}

// Target renders package::module::function.
func (r MoveCallRequest) Target() string {
	return r.PackageID + "::" + r.Module + "::" + r.Function
}

// PureBytes marshals as a JSON number array, which is how vector<u8> arguments are passed.
type PureBytes []byte

func (b PureBytes) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	sb.WriteByte(']')
	return []byte(sb.String()), nil
}

// U64 renders a u64 argument as a decimal string so it survives JSON number precision.
func U64(v uint64) string { return strconv.FormatUint(v, 10) }
