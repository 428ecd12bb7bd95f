package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"github.com/StarryNift/starrynift-nft-box/internal/suitest"
)

var testDigest = base58.Encode(bytes.Repeat([]byte{3}, 32))

func newTestClient(t *testing.T, node *suitest.Node) *Client {
	t.Helper()
	c, err := NewClient(Config{Endpoint: node.URL(), Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNewClientValidatesEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
	if _, err := NewClient(Config{Endpoint: "ftp://node"}); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func TestMoveCallParams(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()
	node.Handle("unsafe_moveCall", suitest.Static(`{"txBytes":"AAEC","gas":[]}`))

	c := newTestClient(t, node)
	tx, err := c.MoveCall(context.Background(), MoveCallRequest{
		Signer:    "0x1",
		PackageID: "0xabc",
		Module:    "admin",
		Function:  "set_contract_signer_public_key",
		Arguments: []any{"0xc0", PureBytes{1, 2}},
		GasBudget: 10_000_000,
	})
	if err != nil {
		t.Fatalf("MoveCall: %v", err)
	}
	if tx.TxBytes != "AAEC" {
		t.Fatalf("unexpected tx bytes %s", tx.TxBytes)
	}
	reqs := node.Requests("unsafe_moveCall")
	if len(reqs) != 1 || len(reqs[0]) != 8 {
		t.Fatalf("unexpected params %v", reqs)
	}
	p := reqs[0]
	if suitest.String(p[1]) != "0xabc" || suitest.String(p[2]) != "admin" || suitest.String(p[3]) != "set_contract_signer_public_key" {
		t.Fatalf("unexpected target params %s %s %s", p[1], p[2], p[3])
	}
	if string(p[4]) != "[]" {
		t.Fatalf("type args = %s, want []", p[4])
	}
	if string(p[5]) != `["0xc0",[1,2]]` {
		t.Fatalf("arguments = %s", p[5])
	}
	if string(p[6]) != "null" {
		t.Fatalf("gas = %s, want null", p[6])
	}
	if suitest.String(p[7]) != "10000000" {
		t.Fatalf("gas budget = %s", p[7])
	}
}

func TestMoveCallRejectsIncompleteTarget(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()
	c := newTestClient(t, node)
	if _, err := c.MoveCall(context.Background(), MoveCallRequest{PackageID: "0x1"}); err == nil {
		t.Fatalf("expected error")
	}
	if node.Calls("unsafe_moveCall") != 0 {
		t.Fatalf("incomplete call reached the node")
	}
}

func TestPaySuiValidatesAmounts(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()
	node.Handle("unsafe_paySui", suitest.Static(`{"txBytes":"AA==","gas":[]}`))
	c := newTestClient(t, node)

	if _, err := c.PaySui(context.Background(), "0x1", []string{"0xcoin"}, []string{"0x2"}, nil, 1); err == nil {
		t.Fatalf("expected mismatch error")
	}
	if _, err := c.PaySui(context.Background(), "0x1", nil, []string{"0x2"}, []uint64{1}, 1); err == nil {
		t.Fatalf("expected missing coins error")
	}
	if _, err := c.PaySui(context.Background(), "0x1", []string{"0xcoin"}, []string{"0x2"}, []uint64{100_000_000}, 5); err != nil {
		t.Fatalf("PaySui: %v", err)
	}
	p := node.Requests("unsafe_paySui")[0]
	if string(p[3]) != `["100000000"]` {
		t.Fatalf("amounts = %s", p[3])
	}
}

func TestRPCErrorIsWrapped(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()
	node.Handle("suix_getBalance", func([]json.RawMessage) (any, error) {
		return nil, errors.New("boom")
	})
	c := newTestClient(t, node)
	_, err := c.GetBalance(context.Background(), "0x1", "")
	if err == nil || !strings.Contains(err.Error(), "suix_getBalance") || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("unexpected error %v", err)
	}
	p := node.Requests("suix_getBalance")[0]
	if suitest.String(p[1]) != SuiCoinType {
		t.Fatalf("default coin type not applied: %s", p[1])
	}
}

func TestGetObjectError(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()
	node.Handle("sui_getObject", suitest.Static(`{"error":{"code":"notExists","object_id":"0x9"}}`))
	c := newTestClient(t, node)
	if _, err := c.GetObject(context.Background(), "0x9", ObjectDataOptions{ShowContent: true}); err == nil || !strings.Contains(err.Error(), "notExists") {
		t.Fatalf("expected notExists error, got %v", err)
	}
}

func TestQueryEventsDecodesCursor(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()
	node.Handle("suix_queryEvents", suitest.Static(`{
		"data":[{"id":{"txDigest":"`+testDigest+`","eventSeq":"0"},"sender":"0x5","type":"0xabc::box_nft::ClaimCouponEvent","parsedJson":{"amount":"2"}}],
		"nextCursor":{"txDigest":"`+testDigest+`","eventSeq":"0"},
		"hasNextPage":true}`))
	c := newTestClient(t, node)

	page, err := c.QueryEvents(context.Background(), EventFilter{MoveEventType: "0xabc::box_nft::ClaimCouponEvent"}, nil, 50, true)
	if err != nil {
		t.Fatalf("QueryEvents: %v", err)
	}
	if len(page.Data) != 1 || page.NextCursor == nil || !page.HasNextPage {
		t.Fatalf("unexpected page %+v", page)
	}
	p := node.Requests("suix_queryEvents")[0]
	if string(p[0]) != `{"MoveEventType":"0xabc::box_nft::ClaimCouponEvent"}` {
		t.Fatalf("filter = %s", p[0])
	}
	if string(p[1]) != "null" || string(p[2]) != "50" || string(p[3]) != "true" {
		t.Fatalf("unexpected paging params %s %s %s", p[1], p[2], p[3])
	}
}

func TestExecuteTransactionBlock(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()
	node.Handle("sui_executeTransactionBlock", suitest.Static(`{
		"digest":"`+testDigest+`",
		"effects":{"status":{"status":"success"},"created":[{"owner":{"AddressOwner":"0x1"},"reference":{"objectId":"0xnew","version":3,"digest":"x"}}]},
		"objectChanges":[{"type":"created","objectType":"0xabc::box_config::BoxConfig","objectId":"0xnew","version":"3"}]}`))
	c := newTestClient(t, node)

	resp, err := c.ExecuteTransactionBlock(context.Background(), "AA==", []string{"sig"}, FullTransactionOptions)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !resp.Effects.Status.Success() || resp.Effects.Created[0].Reference.ObjectID != "0xnew" {
		t.Fatalf("unexpected response %+v", resp)
	}
	p := node.Requests("sui_executeTransactionBlock")[0]
	if suitest.String(p[3]) != "WaitForLocalExecution" {
		t.Fatalf("request type = %s", p[3])
	}
	if string(p[2]) != `{"showInput":true,"showEffects":true,"showEvents":true,"showObjectChanges":true}` {
		t.Fatalf("options = %s", p[2])
	}
}

func TestWaitForTransactionRetries(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()
	attempts := 0
	node.Handle("sui_getTransactionBlock", func([]json.RawMessage) (any, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("Could not find the referenced transaction")
		}
		return suitest.Result(`{"digest":"` + testDigest + `","effects":{"status":{"status":"success"}}}`), nil
	})
	c := newTestClient(t, node)

	resp, err := c.WaitForTransaction(context.Background(), testDigest, 10*time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if resp.Digest != testDigest || node.Calls("sui_getTransactionBlock") != 3 {
		t.Fatalf("unexpected result digest=%s calls=%d", resp.Digest, node.Calls("sui_getTransactionBlock"))
	}
}

func TestSelectGasCoinsPaginates(t *testing.T) {
	node := suitest.NewNode()
	defer node.Close()
	node.Handle("suix_getCoins", func(params []json.RawMessage) (any, error) {
		if string(params[2]) == "null" {
			return suitest.Result(`{"data":[{"coinObjectId":"0xa","balance":"40"}],"nextCursor":"c1","hasNextPage":true}`), nil
		}
		return suitest.Result(`{"data":[{"coinObjectId":"0xb","balance":"70"}],"nextCursor":null,"hasNextPage":false}`), nil
	})
	c := newTestClient(t, node)

	ids, err := c.SelectGasCoins(context.Background(), "0x1", 100)
	if err != nil {
		t.Fatalf("SelectGasCoins: %v", err)
	}
	if len(ids) != 2 || ids[0] != "0xb" {
		t.Fatalf("unexpected coins %v", ids)
	}
	if node.Calls("suix_getCoins") != 2 {
		t.Fatalf("expected 2 pages, got %d", node.Calls("suix_getCoins"))
	}
}
