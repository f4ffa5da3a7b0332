// Package sync drives the HTTP side effects of table edits: it translates
// applied change events into contract calls and server responses back into
// table events. Edits are optimistic and never rolled back; a failed write
// surfaces as an observer event or per-cell validation errors.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/oikos/internal/api"
	"github.com/alexanderramin/oikos/internal/domain"
	"github.com/alexanderramin/oikos/internal/tabling"
)

// Codec binds a coordinator to one server collection: which resource it
// talks to and how its wire models decode.
type Codec interface {
	Resource() api.Resource
	DecodeModel(raw json.RawMessage) (tabling.Model, error)
}

// CellError is one server-side validation failure located at a table cell.
type CellError struct {
	Row     tabling.RowID
	Field   string
	Message string
}

// Config wires a Coordinator to its collaborators. Dispatch receives the
// events the coordinator emits; it must be safe to call from any goroutine.
type Config struct {
	Client   api.Client
	Manager  *tabling.RowManager
	Codec    Codec
	BudgetID int64

	// IncludeMarkups pulls the budget's markups alongside each table fetch.
	// Only the account and sub-account tables carry markups.
	IncludeMarkups bool

	Dispatch     func(tabling.Event)
	OnCellErrors func([]CellError)
	Observer     Observer
	Logger       *slog.Logger
}

// Coordinator serializes a table's writes against the budget server.
//
// Reads are latest-wins: a new fetch cancels the in-flight one, and a
// cancelled response is never dispatched. Writes are serialized per row:
// one in-flight update per row id, with edits arriving meanwhile merged
// into a pending change that flushes when the in-flight call completes.
// Writes to different rows proceed independently.
type Coordinator struct {
	client         api.Client
	manager        *tabling.RowManager
	codec          Codec
	budgetID       int64
	includeMarkups bool

	dispatch     func(tabling.Event)
	onCellErrors func([]CellError)
	observer     Observer
	logger       *slog.Logger

	mu          stdsync.Mutex
	fetchCancel context.CancelFunc
	inflight    map[tabling.RowID]bool
	pending     map[tabling.RowID]tabling.RowChange
	active      int

	wg stdsync.WaitGroup
}

// NewCoordinator creates a Coordinator from cfg. Client, Manager, Codec,
// and Dispatch are required; the rest default to no-ops.
func NewCoordinator(cfg Config) *Coordinator {
	observer := cfg.Observer
	if observer == nil {
		observer = NoopObserver{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	onCellErrors := cfg.OnCellErrors
	if onCellErrors == nil {
		onCellErrors = func([]CellError) {}
	}
	return &Coordinator{
		client:         cfg.Client,
		manager:        cfg.Manager,
		codec:          cfg.Codec,
		budgetID:       cfg.BudgetID,
		includeMarkups: cfg.IncludeMarkups,
		dispatch:       cfg.Dispatch,
		onCellErrors:   onCellErrors,
		observer:       observer,
		logger:         logger,
		inflight:       map[tabling.RowID]bool{},
		pending:        map[tabling.RowID]tabling.RowChange{},
	}
}

// Busy reports whether any write is still in flight.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active > 0
}

// Wait blocks until every launched operation has completed. Intended for
// shutdown and tests; new operations may still be launched afterwards.
func (c *Coordinator) Wait() { c.wg.Wait() }

// Fetch loads the table snapshot. Any previous fetch still in flight is
// cancelled, and its response — even if already received — is discarded.
func (c *Coordinator) Fetch(ctx context.Context) {
	c.mu.Lock()
	if c.fetchCancel != nil {
		c.fetchCancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	c.fetchCancel = cancel
	c.mu.Unlock()

	c.dispatch(tabling.RequestEvent{})

	c.track(func() {
		start := time.Now()
		result, err := c.client.Table(fctx, c.budgetID, c.codec.Resource())
		if fctx.Err() != nil {
			c.logger.Debug("stale table response discarded", "resource", c.codec.Resource())
			return
		}
		if err != nil {
			c.observe(fctx, "table_fetch", start, err, nil)
			return
		}

		models := make([]tabling.Model, 0, len(result.Models.Data))
		for _, raw := range result.Models.Data {
			mod, err := c.codec.DecodeModel(raw)
			if err != nil {
				c.observe(fctx, "table_fetch", start, err, nil)
				return
			}
			models = append(models, mod)
		}
		groups, err := api.DecodeGroups(result.Groups.Data)
		if err != nil {
			c.observe(fctx, "table_fetch", start, err, nil)
			return
		}

		var markups []domain.Markup
		if c.includeMarkups {
			markups, err = c.fetchMarkups(fctx)
			if err != nil {
				c.observe(fctx, "table_fetch", start, err, nil)
				return
			}
		}

		if fctx.Err() != nil {
			return
		}
		c.dispatch(tabling.ResponseEvent{Models: models, Groups: groups})
		for _, mk := range markups {
			c.dispatch(tabling.MarkupAddEvent{Markup: mk})
		}
		c.observe(fctx, "table_fetch", start, nil, map[string]any{
			"models": len(models), "groups": len(groups),
		})
	})
}

// fetchMarkups lists the budget's markups for interleaving into the table.
func (c *Coordinator) fetchMarkups(ctx context.Context) ([]domain.Markup, error) {
	list, err := c.client.List(ctx, c.budgetID, api.ResourceMarkups)
	if err != nil {
		return nil, err
	}
	markups := make([]domain.Markup, 0, len(list.Data))
	for _, raw := range list.Data {
		mk, err := api.DecodeMarkup(raw)
		if err != nil {
			return nil, err
		}
		markups = append(markups, *mk)
	}
	return markups, nil
}

// SubmitChanges pushes applied cell edits to the server. Changes are
// consolidated per row; placeholder edits stay local until the placeholder
// is submitted for creation.
func (c *Coordinator) SubmitChanges(ctx context.Context, changes []tabling.RowChange) {
	for _, ch := range tabling.Consolidate(changes) {
		switch ch.ID.Type {
		case tabling.RowTypeModel, tabling.RowTypeMarkup:
			c.enqueue(ctx, ch)
		}
	}
}

func (c *Coordinator) enqueue(ctx context.Context, ch tabling.RowChange) {
	c.mu.Lock()
	if c.inflight[ch.ID] {
		if prev, ok := c.pending[ch.ID]; ok {
			merged, err := tabling.MergeChanges(prev, ch)
			if err != nil {
				c.mu.Unlock()
				c.logger.Warn("dropping unmergeable pending change", "row", ch.ID.String(), "error", err)
				return
			}
			ch = merged
		}
		c.pending[ch.ID] = ch
		c.mu.Unlock()
		return
	}
	c.inflight[ch.ID] = true
	c.mu.Unlock()

	c.track(func() { c.flushRow(ctx, ch) })
}

// flushRow runs the per-row update loop: send the change, then keep sending
// whatever merged in while the request was out, until the row goes quiet.
func (c *Coordinator) flushRow(ctx context.Context, ch tabling.RowChange) {
	for {
		start := time.Now()
		payload := c.manager.PayloadFor(tabling.ChangeSource{Change: ch})
		payload["id"] = ch.ID.Num

		res := c.codec.Resource()
		if ch.ID.Type == tabling.RowTypeMarkup {
			res = api.ResourceMarkups
		}
		_, err := c.client.BulkUpdate(ctx, c.budgetID, res, []tabling.Payload{payload})
		c.observe(ctx, "row_update", start, err, map[string]any{"row": ch.ID.String()})
		if err != nil {
			c.reportValidation(err, func(int) tabling.RowID { return ch.ID })
		}

		c.mu.Lock()
		next, ok := c.pending[ch.ID]
		if !ok {
			delete(c.inflight, ch.ID)
			c.mu.Unlock()
			return
		}
		delete(c.pending, ch.ID)
		c.mu.Unlock()
		ch = next
	}
}

// SubmitPlaceholders bulk-creates the given placeholder rows, skipping any
// still missing required fields. Each created model re-enters the table as
// a placeholder activation.
func (c *Coordinator) SubmitPlaceholders(ctx context.Context, rows []tabling.PlaceholderRow) {
	var eligible []tabling.PlaceholderRow
	for _, row := range rows {
		if c.manager.RowHasRequiredFields(row) {
			eligible = append(eligible, row)
		}
	}
	if len(eligible) == 0 {
		return
	}

	payloads := make([]tabling.Payload, len(eligible))
	byToken := make(map[uuid.UUID]tabling.RowID, len(eligible))
	order := make([]tabling.RowID, len(eligible))
	for i, row := range eligible {
		p := c.manager.PayloadFor(tabling.RowSource{Row: row})
		p["token"] = row.Token.String()
		payloads[i] = p
		byToken[row.Token] = row.ID
		order[i] = row.ID
	}

	c.track(func() {
		start := time.Now()
		raws, err := c.client.BulkCreate(ctx, c.budgetID, c.codec.Resource(), payloads)
		c.observe(ctx, "row_create", start, err, map[string]any{"rows": len(payloads)})
		if err != nil {
			c.reportValidation(err, func(i int) tabling.RowID {
				if i >= 0 && i < len(order) {
					return order[i]
				}
				return tabling.RowID{}
			})
			return
		}

		for i, raw := range raws {
			id, ok := c.correlate(raw, byToken, order, i)
			if !ok {
				continue
			}
			mod, err := c.codec.DecodeModel(raw)
			if err != nil {
				c.logger.Warn("undecodable created model", "row", id.String(), "error", err)
				continue
			}
			c.dispatch(tabling.PlaceholderActivatedEvent{ID: id, Model: mod})
		}
	})
}

// correlate maps one created model back to its placeholder, preferring the
// echoed client token and falling back to payload order.
func (c *Coordinator) correlate(raw json.RawMessage, byToken map[uuid.UUID]tabling.RowID, order []tabling.RowID, i int) (tabling.RowID, bool) {
	if token, ok := api.CreatedToken(raw); ok {
		if id, ok := byToken[token]; ok {
			return id, true
		}
		c.logger.Warn("created model echoed an unknown token", "token", token.String())
	}
	if i < len(order) {
		c.logger.Warn("correlating created model by payload order", "index", i)
		return order[i], true
	}
	c.logger.Warn("created model beyond payload range dropped", "index", i)
	return tabling.RowID{}, false
}

// DeleteRows issues one delete per server-backed row, independently. Rows
// are already gone locally; failures are observed, never rolled back.
func (c *Coordinator) DeleteRows(ctx context.Context, ids []tabling.RowID) {
	for _, id := range ids {
		res, ok := c.deleteResource(id)
		if !ok {
			continue
		}
		id := id
		c.track(func() {
			start := time.Now()
			err := c.client.Delete(ctx, c.budgetID, res, id.Num)
			if errors.Is(err, api.ErrNotFound) {
				err = nil // already gone server-side
			}
			c.observe(ctx, "row_delete", start, err, map[string]any{"row": id.String()})
		})
	}
}

func (c *Coordinator) deleteResource(id tabling.RowID) (api.Resource, bool) {
	switch id.Type {
	case tabling.RowTypeModel:
		return c.codec.Resource(), true
	case tabling.RowTypeGroup:
		return api.ResourceGroups, true
	case tabling.RowTypeMarkup:
		return api.ResourceMarkups, true
	default:
		// Placeholders and footers never existed server-side.
		return "", false
	}
}

// SaveGroup creates a group server-side and dispatches the authoritative
// group row back into the table.
func (c *Coordinator) SaveGroup(ctx context.Context, name, color string, children []int64) {
	payload := tabling.Payload{"name": name, "color": color, "children": children}
	c.track(func() {
		start := time.Now()
		raws, err := c.client.BulkCreate(ctx, c.budgetID, api.ResourceGroups, []tabling.Payload{payload})
		c.observe(ctx, "group_save", start, err, map[string]any{"name": name})
		if err != nil || len(raws) == 0 {
			return
		}
		g, err := api.DecodeGroup(raws[0])
		if err != nil {
			c.logger.Warn("undecodable created group", "error", err)
			return
		}
		c.dispatch(tabling.GroupAddEvent{Group: *g})
	})
}

// SaveMarkup creates an empty markup of the given unit server-side and
// dispatches the authoritative markup row back into the table. The rate is
// filled in by editing the row like any other.
func (c *Coordinator) SaveMarkup(ctx context.Context, unit domain.MarkupUnit) {
	payload := tabling.Payload{"identifier": "", "unit": string(unit), "rate": "0"}
	c.track(func() {
		start := time.Now()
		raws, err := c.client.BulkCreate(ctx, c.budgetID, api.ResourceMarkups, []tabling.Payload{payload})
		c.observe(ctx, "markup_save", start, err, map[string]any{"unit": string(unit)})
		if err != nil || len(raws) == 0 {
			return
		}
		mk, err := api.DecodeMarkup(raws[0])
		if err != nil {
			c.logger.Warn("undecodable created markup", "error", err)
			return
		}
		c.dispatch(tabling.MarkupAddEvent{Markup: *mk})
	})
}

// UpdateRowGroup pushes a group membership change for the given model rows:
// a non-nil group adds them, nil detaches them.
func (c *Coordinator) UpdateRowGroup(ctx context.Context, ids []tabling.RowID, group *int64) {
	payloads := make([]tabling.Payload, 0, len(ids))
	for _, id := range ids {
		if id.Type != tabling.RowTypeModel {
			continue
		}
		payloads = append(payloads, tabling.Payload{"id": id.Num, "group": group})
	}
	if len(payloads) == 0 {
		return
	}
	c.track(func() {
		start := time.Now()
		_, err := c.client.BulkUpdate(ctx, c.budgetID, c.codec.Resource(), payloads)
		c.observe(ctx, "row_group_update", start, err, map[string]any{"rows": len(payloads)})
	})
}

// UpdateGroup pushes a group rename/recolor. The local state already holds
// the edit.
func (c *Coordinator) UpdateGroup(ctx context.Context, id int64, name, color *string) {
	payload := tabling.Payload{"id": id}
	if name != nil {
		payload["name"] = *name
	}
	if color != nil {
		payload["color"] = *color
	}
	c.track(func() {
		start := time.Now()
		_, err := c.client.BulkUpdate(ctx, c.budgetID, api.ResourceGroups, []tabling.Payload{payload})
		c.observe(ctx, "group_update", start, err, map[string]any{"group": id})
	})
}

func (c *Coordinator) track(fn func()) {
	c.mu.Lock()
	c.active++
	c.mu.Unlock()
	c.wg.Add(1)
	go func() {
		defer func() {
			c.mu.Lock()
			c.active--
			c.mu.Unlock()
			c.wg.Done()
		}()
		fn()
	}()
}

func (c *Coordinator) observe(ctx context.Context, op string, start time.Time, err error, fields map[string]any) {
	c.observer.ObserveOp(ctx, OpEvent{
		Op:       op,
		Duration: time.Since(start),
		Success:  err == nil,
		Err:      err,
		Fields:   fields,
	})
}

// reportValidation converts a server validation rejection into cell errors.
// locate maps the bulk payload index to the owning row.
func (c *Coordinator) reportValidation(err error, locate func(int) tabling.RowID) {
	var verr *api.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	row := locate(verr.Index)
	cellErrs := make([]CellError, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		cellErrs = append(cellErrs, CellError{Row: row, Field: f.Field, Message: f.Message})
	}
	if len(cellErrs) > 0 {
		c.onCellErrors(cellErrs)
	}
}
