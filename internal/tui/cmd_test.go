package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/oikos/internal/api"
	"github.com/alexanderramin/oikos/internal/prefs"
)

func testApp(client api.Client) *App {
	return &App{
		Client: client,
		Store:  prefs.NewMemoryStore(),
		Logger: slog.New(slog.DiscardHandler),
	}
}

func TestBudgetsCmdListsRecentsFirst(t *testing.T) {
	client := &fakeClient{
		list: func(_ context.Context, res api.Resource) (*api.ListResult, error) {
			assert.Equal(t, api.ResourceBudgets, res)
			return &api.ListResult{Count: 1, Data: []json.RawMessage{
				json.RawMessage(`{"id":1,"name":"Feature Film","domain":"budget","estimated":"1200.50"}`),
			}}, nil
		},
	}
	app := testApp(client)
	require.NoError(t, app.Store.TouchRecentBudget(context.Background(),
		prefs.RecentBudget{ID: 1, Name: "Feature Film", OpenedAt: time.Now()}))

	cmd := newBudgetsCmd(app)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Recent")
	assert.Contains(t, out, "Feature Film")
	assert.Contains(t, out, "1200.50")
}

func TestBudgetsCmdForgetFlag(t *testing.T) {
	app := testApp(&fakeClient{})
	ctx := context.Background()
	require.NoError(t, app.Store.TouchRecentBudget(ctx,
		prefs.RecentBudget{ID: 7, Name: "Pilot", OpenedAt: time.Now()}))

	cmd := newBudgetsCmd(app)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--forget", "7"})
	require.NoError(t, cmd.Execute())

	recents, err := app.Store.RecentBudgets(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recents)
}

func TestPullCmdPrintsTable(t *testing.T) {
	client := &fakeClient{
		table: func(context.Context) (*api.TableResult, error) {
			return &api.TableResult{
				Models: api.ListResult{Count: 2, Data: []json.RawMessage{
					json.RawMessage(`{"id":1,"identifier":"1000","description":"Cast","estimated":"10.00","actual":"4.00"}`),
					json.RawMessage(`{"id":2,"identifier":"2000","description":"Crew","estimated":"20.00","actual":"0.00"}`),
				}},
				Groups: api.ListResult{Count: 1, Data: []json.RawMessage{
					json.RawMessage(`{"id":10,"name":"Above the line","children":[1]}`),
				}},
			}, nil
		},
	}
	cmd := newPullCmd(testApp(client))
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"7"})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "identifier")
	assert.Contains(t, out, "1000")
	assert.Contains(t, out, "Above the line")
	// Grouped member renders before its group's subtotal row.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("1000")),
		bytes.Index(buf.Bytes(), []byte("Above the line")))
}

func TestPullCmdRejectsUnknownTable(t *testing.T) {
	cmd := newPullCmd(testApp(&fakeClient{}))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"7", "--table", "payroll"})
	assert.Error(t, cmd.Execute())
}
