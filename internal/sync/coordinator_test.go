package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	stdsync "sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/oikos/internal/api"
	"github.com/alexanderramin/oikos/internal/domain"
	"github.com/alexanderramin/oikos/internal/tabling"
)

type testModel struct {
	ID         int64
	Identifier string
}

func (m *testModel) ModelID() int64 { return m.ID }

func (m *testModel) Value(field string) (any, bool) {
	switch field {
	case "identifier":
		return m.Identifier, true
	default:
		return nil, false
	}
}

func (m *testModel) SetValue(field string, v any) bool {
	if field == "identifier" {
		if s, ok := v.(string); ok {
			m.Identifier = s
			return true
		}
	}
	return false
}

type testCodec struct{}

func (testCodec) Resource() api.Resource { return api.ResourceAccounts }

func (testCodec) DecodeModel(raw json.RawMessage) (tabling.Model, error) {
	var w struct {
		ID         int64  `json:"id"`
		Identifier string `json:"identifier"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return &testModel{ID: w.ID, Identifier: w.Identifier}, nil
}

// fakeClient implements api.Client with pluggable behavior per method.
type fakeClient struct {
	list       func(ctx context.Context, res api.Resource) (*api.ListResult, error)
	table      func(ctx context.Context) (*api.TableResult, error)
	bulkUpdate func(ctx context.Context, res api.Resource, payloads []tabling.Payload) ([]json.RawMessage, error)
	bulkCreate func(ctx context.Context, res api.Resource, payloads []tabling.Payload) ([]json.RawMessage, error)
	deleteFn   func(ctx context.Context, res api.Resource, id int64) error
}

func (f *fakeClient) List(ctx context.Context, _ int64, res api.Resource) (*api.ListResult, error) {
	if f.list != nil {
		return f.list(ctx, res)
	}
	return &api.ListResult{}, nil
}

func (f *fakeClient) Table(ctx context.Context, _ int64, _ api.Resource) (*api.TableResult, error) {
	return f.table(ctx)
}

func (f *fakeClient) Detail(context.Context, int64, api.Resource, int64) (json.RawMessage, error) {
	return nil, api.ErrNotFound
}

func (f *fakeClient) BulkUpdate(ctx context.Context, _ int64, res api.Resource, payloads []tabling.Payload) ([]json.RawMessage, error) {
	return f.bulkUpdate(ctx, res, payloads)
}

func (f *fakeClient) BulkCreate(ctx context.Context, _ int64, res api.Resource, payloads []tabling.Payload) ([]json.RawMessage, error) {
	return f.bulkCreate(ctx, res, payloads)
}

func (f *fakeClient) Delete(ctx context.Context, _ int64, res api.Resource, id int64) error {
	return f.deleteFn(ctx, res, id)
}

func (f *fakeClient) Available(context.Context) bool { return true }

// eventLog collects dispatched events thread-safely.
type eventLog struct {
	mu     stdsync.Mutex
	events []tabling.Event
}

func (l *eventLog) dispatch(ev tabling.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) all() []tabling.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]tabling.Event(nil), l.events...)
}

func syncManager() *tabling.RowManager {
	return &tabling.RowManager{
		Columns: []tabling.Column{
			{Kind: tabling.ColumnReadWrite, Field: "identifier", Required: true},
			{Kind: tabling.ColumnReadWrite, Field: "description", AllowBlank: true},
		},
		Grid:   tabling.GridData,
		Logger: slog.New(slog.DiscardHandler),
	}
}

func newTestCoordinator(client api.Client, log *eventLog, onErrs func([]CellError)) *Coordinator {
	return NewCoordinator(Config{
		Client:       client,
		Manager:      syncManager(),
		Codec:        testCodec{},
		BudgetID:     7,
		Dispatch:     log.dispatch,
		OnCellErrors: onErrs,
		Logger:       slog.New(slog.DiscardHandler),
	})
}

func TestCoordinator_Fetch(t *testing.T) {
	client := &fakeClient{
		table: func(context.Context) (*api.TableResult, error) {
			return &api.TableResult{
				Models: api.ListResult{Count: 1, Data: []json.RawMessage{
					json.RawMessage(`{"id":1,"identifier":"1000"}`),
				}},
				Groups: api.ListResult{Count: 1, Data: []json.RawMessage{
					json.RawMessage(`{"id":10,"name":"Crew"}`),
				}},
			}, nil
		},
	}
	log := &eventLog{}
	c := newTestCoordinator(client, log, nil)

	c.Fetch(context.Background())
	c.Wait()

	events := log.all()
	require.Len(t, events, 2)
	assert.IsType(t, tabling.RequestEvent{}, events[0])
	resp, ok := events[1].(tabling.ResponseEvent)
	require.True(t, ok)
	require.Len(t, resp.Models, 1)
	assert.Equal(t, int64(1), resp.Models[0].ModelID())
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "Crew", resp.Groups[0].Name)
}

func TestCoordinator_Fetch_IncludesMarkups(t *testing.T) {
	client := &fakeClient{
		table: func(context.Context) (*api.TableResult, error) {
			return &api.TableResult{
				Models: api.ListResult{Count: 1, Data: []json.RawMessage{
					json.RawMessage(`{"id":1,"identifier":"1000"}`),
				}},
			}, nil
		},
		list: func(_ context.Context, res api.Resource) (*api.ListResult, error) {
			assert.Equal(t, api.ResourceMarkups, res)
			return &api.ListResult{Count: 1, Data: []json.RawMessage{
				json.RawMessage(`{"id":5,"identifier":"M1","unit":"percent","rate":"0.1","children":[1]}`),
			}}, nil
		},
	}
	log := &eventLog{}
	c := NewCoordinator(Config{
		Client:         client,
		Manager:        syncManager(),
		Codec:          testCodec{},
		BudgetID:       7,
		IncludeMarkups: true,
		Dispatch:       log.dispatch,
		Logger:         slog.New(slog.DiscardHandler),
	})

	c.Fetch(context.Background())
	c.Wait()

	events := log.all()
	require.Len(t, events, 3)
	assert.IsType(t, tabling.ResponseEvent{}, events[1])
	add, ok := events[2].(tabling.MarkupAddEvent)
	require.True(t, ok)
	assert.Equal(t, int64(5), add.Markup.ID)
	assert.Equal(t, domain.MarkupPercent, add.Markup.Unit)
	assert.Equal(t, []int64{1}, add.Markup.Children)
}

func TestCoordinator_Fetch_LatestWins(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu stdsync.Mutex
	client := &fakeClient{
		table: func(ctx context.Context) (*api.TableResult, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				<-release // held until after the second fetch resolves
				return &api.TableResult{Models: api.ListResult{Data: []json.RawMessage{
					json.RawMessage(`{"id":1,"identifier":"stale"}`),
				}}}, nil
			}
			return &api.TableResult{Models: api.ListResult{Data: []json.RawMessage{
				json.RawMessage(`{"id":2,"identifier":"fresh"}`),
			}}}, nil
		},
	}
	log := &eventLog{}
	c := newTestCoordinator(client, log, nil)

	c.Fetch(context.Background())
	c.Fetch(context.Background())
	close(release)
	c.Wait()

	var responses []tabling.ResponseEvent
	for _, ev := range log.all() {
		if resp, ok := ev.(tabling.ResponseEvent); ok {
			responses = append(responses, resp)
		}
	}
	require.Len(t, responses, 1, "cancelled response must never apply")
	assert.Equal(t, int64(2), responses[0].Models[0].ModelID())
}

func TestCoordinator_SubmitChanges_SerializesPerRow(t *testing.T) {
	started := make(chan tabling.Payload, 4)
	release := make(chan struct{})
	var mu stdsync.Mutex
	var sent []tabling.Payload
	client := &fakeClient{
		bulkUpdate: func(_ context.Context, _ api.Resource, payloads []tabling.Payload) ([]json.RawMessage, error) {
			mu.Lock()
			sent = append(sent, payloads[0])
			mu.Unlock()
			started <- payloads[0]
			<-release
			return nil, nil
		},
	}
	log := &eventLog{}
	c := newTestCoordinator(client, log, nil)
	ctx := context.Background()
	id := tabling.ModelRowID(1)

	c.SubmitChanges(ctx, []tabling.RowChange{{
		ID:   id,
		Data: tabling.RowChangeData{"identifier": {NewValue: "1000"}},
	}})
	<-started // first request is now in flight

	// These two land while the first request is out; they merge into one
	// pending change instead of firing overlapping requests.
	c.SubmitChanges(ctx, []tabling.RowChange{{
		ID:   id,
		Data: tabling.RowChangeData{"description": {NewValue: "first"}},
	}})
	c.SubmitChanges(ctx, []tabling.RowChange{{
		ID:   id,
		Data: tabling.RowChangeData{"description": {NewValue: "second"}, "identifier": {NewValue: "1001"}},
	}})

	close(release)
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 2, "overlapping edits to one row must coalesce")
	assert.Equal(t, "1000", sent[0]["identifier"])
	assert.Equal(t, "second", sent[1]["description"])
	assert.Equal(t, "1001", sent[1]["identifier"])
	assert.Equal(t, int64(1), sent[1]["id"])
}

func TestCoordinator_SubmitChanges_IndependentRows(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	client := &fakeClient{
		bulkUpdate: func(context.Context, api.Resource, []tabling.Payload) ([]json.RawMessage, error) {
			started <- struct{}{}
			<-release
			return nil, nil
		},
	}
	c := newTestCoordinator(client, &eventLog{}, nil)
	ctx := context.Background()

	c.SubmitChanges(ctx, []tabling.RowChange{
		{ID: tabling.ModelRowID(1), Data: tabling.RowChangeData{"identifier": {NewValue: "a"}}},
		{ID: tabling.ModelRowID(2), Data: tabling.RowChangeData{"identifier": {NewValue: "b"}}},
	})

	// Both requests must be in flight at once.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("edits to different rows must not serialize")
		}
	}
	close(release)
	c.Wait()
}

func TestCoordinator_SubmitChanges_ValidationErrors(t *testing.T) {
	client := &fakeClient{
		bulkUpdate: func(context.Context, api.Resource, []tabling.Payload) ([]json.RawMessage, error) {
			return nil, &api.ValidationError{
				Status: 400,
				Index:  0,
				Fields: []api.FieldError{{Field: "identifier", Message: "must be unique"}},
			}
		},
	}
	var mu stdsync.Mutex
	var got []CellError
	c := newTestCoordinator(client, &eventLog{}, func(errs []CellError) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, errs...)
	})

	c.SubmitChanges(context.Background(), []tabling.RowChange{{
		ID:   tabling.ModelRowID(1),
		Data: tabling.RowChangeData{"identifier": {NewValue: "1000"}},
	}})
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, tabling.ModelRowID(1), got[0].Row)
	assert.Equal(t, "identifier", got[0].Field)
	assert.Equal(t, "must be unique", got[0].Message)
}

func TestCoordinator_SubmitChanges_IgnoresPlaceholders(t *testing.T) {
	client := &fakeClient{
		bulkUpdate: func(context.Context, api.Resource, []tabling.Payload) ([]json.RawMessage, error) {
			t.Error("placeholder edits must not PATCH")
			return nil, nil
		},
	}
	c := newTestCoordinator(client, &eventLog{}, nil)
	c.SubmitChanges(context.Background(), []tabling.RowChange{{
		ID:   tabling.PlaceholderRowID(tabling.NewPlaceholderID().Num),
		Data: tabling.RowChangeData{"identifier": {NewValue: "1000"}},
	}})
	c.Wait()
}

func TestCoordinator_SubmitPlaceholders(t *testing.T) {
	mgr := syncManager()
	ready := mgr.CreatePlaceholder(tabling.RowData{"identifier": "1000"}, nil)
	notReady := mgr.CreatePlaceholder(nil, nil)

	var sent []tabling.Payload
	client := &fakeClient{
		bulkCreate: func(_ context.Context, _ api.Resource, payloads []tabling.Payload) ([]json.RawMessage, error) {
			sent = payloads
			// Echo the token so correlation does not depend on order.
			raw := fmt.Sprintf(`{"id":42,"identifier":"1000","token":%q}`, payloads[0]["token"])
			return []json.RawMessage{json.RawMessage(raw)}, nil
		},
	}
	log := &eventLog{}
	c := newTestCoordinator(client, log, nil)

	c.SubmitPlaceholders(context.Background(), []tabling.PlaceholderRow{ready, notReady})
	c.Wait()

	require.Len(t, sent, 1, "rows missing required fields must not create")
	assert.Equal(t, "1000", sent[0]["identifier"])
	assert.Equal(t, ready.Token.String(), sent[0]["token"])

	events := log.all()
	require.Len(t, events, 1)
	act, ok := events[0].(tabling.PlaceholderActivatedEvent)
	require.True(t, ok)
	assert.Equal(t, ready.ID, act.ID)
	assert.Equal(t, int64(42), act.Model.ModelID())
}

func TestCoordinator_SubmitPlaceholders_OrderFallback(t *testing.T) {
	mgr := syncManager()
	first := mgr.CreatePlaceholder(tabling.RowData{"identifier": "1000"}, nil)
	second := mgr.CreatePlaceholder(tabling.RowData{"identifier": "2000"}, nil)

	client := &fakeClient{
		bulkCreate: func(context.Context, api.Resource, []tabling.Payload) ([]json.RawMessage, error) {
			// A server that does not echo tokens.
			return []json.RawMessage{
				json.RawMessage(`{"id":42,"identifier":"1000"}`),
				json.RawMessage(`{"id":43,"identifier":"2000"}`),
			}, nil
		},
	}
	log := &eventLog{}
	c := newTestCoordinator(client, log, nil)

	c.SubmitPlaceholders(context.Background(), []tabling.PlaceholderRow{first, second})
	c.Wait()

	events := log.all()
	require.Len(t, events, 2)
	assert.Equal(t, first.ID, events[0].(tabling.PlaceholderActivatedEvent).ID)
	assert.Equal(t, second.ID, events[1].(tabling.PlaceholderActivatedEvent).ID)
}

func TestCoordinator_DeleteRows(t *testing.T) {
	var mu stdsync.Mutex
	deleted := map[api.Resource][]int64{}
	client := &fakeClient{
		deleteFn: func(_ context.Context, res api.Resource, id int64) error {
			mu.Lock()
			defer mu.Unlock()
			deleted[res] = append(deleted[res], id)
			if id == 99 {
				return api.ErrNotFound // tolerated: row already gone
			}
			return nil
		},
	}
	c := newTestCoordinator(client, &eventLog{}, nil)

	c.DeleteRows(context.Background(), []tabling.RowID{
		tabling.ModelRowID(1),
		tabling.ModelRowID(99),
		tabling.GroupRowID(10),
		tabling.MarkupRowID(3),
		tabling.NewPlaceholderID(), // never existed server-side
	})
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []int64{1, 99}, deleted[api.ResourceAccounts])
	assert.Equal(t, []int64{10}, deleted[api.ResourceGroups])
	assert.Equal(t, []int64{3}, deleted[api.ResourceMarkups])
}

func TestCoordinator_SaveGroup(t *testing.T) {
	client := &fakeClient{
		bulkCreate: func(_ context.Context, res api.Resource, payloads []tabling.Payload) ([]json.RawMessage, error) {
			assert.Equal(t, api.ResourceGroups, res)
			assert.Equal(t, "Crew", payloads[0]["name"])
			return []json.RawMessage{json.RawMessage(`{"id":10,"name":"Crew","color":"#AD5096","children":[1,2]}`)}, nil
		},
	}
	log := &eventLog{}
	c := newTestCoordinator(client, log, nil)

	c.SaveGroup(context.Background(), "Crew", "#AD5096", []int64{1, 2})
	c.Wait()

	events := log.all()
	require.Len(t, events, 1)
	add, ok := events[0].(tabling.GroupAddEvent)
	require.True(t, ok)
	assert.Equal(t, int64(10), add.Group.ID)
	assert.Equal(t, []int64{1, 2}, add.Group.Children)
}

func TestCoordinator_SaveMarkup(t *testing.T) {
	client := &fakeClient{
		bulkCreate: func(_ context.Context, res api.Resource, payloads []tabling.Payload) ([]json.RawMessage, error) {
			assert.Equal(t, api.ResourceMarkups, res)
			assert.Equal(t, "flat", payloads[0]["unit"])
			return []json.RawMessage{json.RawMessage(`{"id":5,"identifier":"","unit":"flat","rate":"0"}`)}, nil
		},
	}
	log := &eventLog{}
	c := newTestCoordinator(client, log, nil)

	c.SaveMarkup(context.Background(), domain.MarkupFlat)
	c.Wait()

	events := log.all()
	require.Len(t, events, 1)
	add, ok := events[0].(tabling.MarkupAddEvent)
	require.True(t, ok)
	assert.Equal(t, int64(5), add.Markup.ID)
	assert.Equal(t, domain.MarkupFlat, add.Markup.Unit)
}

func TestCoordinator_SubmitChanges_MarkupResource(t *testing.T) {
	done := make(chan api.Resource, 1)
	client := &fakeClient{
		bulkUpdate: func(_ context.Context, res api.Resource, payloads []tabling.Payload) ([]json.RawMessage, error) {
			assert.Equal(t, int64(5), payloads[0]["id"])
			done <- res
			return nil, nil
		},
	}
	c := newTestCoordinator(client, &eventLog{}, nil)
	c.SubmitChanges(context.Background(), []tabling.RowChange{{
		ID:   tabling.MarkupRowID(5),
		Data: tabling.RowChangeData{"description": {NewValue: "contingency"}},
	}})
	c.Wait()
	assert.Equal(t, api.ResourceMarkups, <-done)
}

func TestCoordinator_UnusedTokenIsStable(t *testing.T) {
	// Tokens are drawn once at placeholder creation and survive merges.
	mgr := syncManager()
	row := mgr.CreatePlaceholder(nil, nil)
	require.NotEqual(t, uuid.Nil, row.Token)

	merged := mgr.MergeChangesWithRow(row, tabling.RowChange{
		ID:   row.ID,
		Data: tabling.RowChangeData{"identifier": {NewValue: "1000"}},
	})
	assert.Equal(t, row.Token, merged.(tabling.PlaceholderRow).Token)
}
