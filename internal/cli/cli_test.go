package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"statusboard/internal/domain"
	models "statusboard/internal/domain/models/statuspage"
	spSvc "statusboard/internal/domain/services/statuspage"
	"statusboard/internal/handler"
	"statusboard/internal/repository/sqlite"
	svc "statusboard/internal/service/statuspage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type testEnv struct {
	url     string
	service spSvc.LayoutService
	page    *models.StatusPage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.Open(context.Background(), "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := svc.NewLayoutService(sqlite.NewStatusPageRepository(db), sqlite.NewTransactionManager(db), 0, logger)

	page, err := service.CreateStatusPage(context.Background(), &spSvc.CreateStatusPageRequest{
		Name:      "Acme",
		Subdomain: "acme",
		Items: []spSvc.NewLayoutItem{
			{Type: models.ItemTypeGroup, Name: "API", Components: []string{"Auth", "Billing"}},
			{Type: models.ItemTypeComponent, Name: "Website"},
		},
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	handler.NewStatusPageHandler(service, logger).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testEnv{url: srv.URL, service: service, page: page}
}

// run executes statuspagectl against the test server and returns stdout
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--server", e.url, "--config", writeEmptyConfig(t)}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: 5s\n"), 0o600))
	return path
}

func (e *testEnv) rootNames(t *testing.T) []string {
	t.Helper()
	l, err := e.service.GetLayout(context.Background(), e.page.ID)
	require.NoError(t, err)
	var names []string
	for _, item := range l.Tree {
		names = append(names, item.Data.Name)
	}
	return names
}

func TestList(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "SUBDOMAIN")
	assert.Contains(t, out, env.page.ID)
	assert.Contains(t, out, "acme")

	out, err = env.run(t, "", "list", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"subdomain": "acme"`)

	_, err = env.run(t, "", "list", "-o", "xml")
	assert.Error(t, err)
}

func TestTree(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "tree", "acme")
	require.NoError(t, err)
	for _, name := range []string{"Acme (acme)", "API", "Auth", "Billing", "Website"} {
		assert.Contains(t, out, name)
	}
	assert.Less(t, strings.Index(out, "Billing"), strings.Index(out, "Website"))

	out, err = env.run(t, "", "tree", env.page.ID, "-o", "yaml")
	require.NoError(t, err)
	var items []models.ServerSideItem
	require.NoError(t, yaml.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	require.NotNil(t, items[0].StatusPageComponentGroup)
	assert.Equal(t, "API", items[0].StatusPageComponentGroup.Name)
	assert.Len(t, items[0].StatusPageItems, 2)
}

func TestTree_UnknownSubdomain(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "tree", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMove_IntoGroup(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "move", "acme", "Website", "Billing", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "depth 1 (allowed 1-1), parent API\n", out)
	assert.Equal(t, []string{"API", "Website"}, env.rootNames(t))

	_, err = env.run(t, "", "move", "acme", "Website", "Billing")
	require.NoError(t, err)
	assert.Equal(t, []string{"API"}, env.rootNames(t))
}

func TestMove_OutOfGroup(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "move", "acme", "Billing", "Billing", "--indent=-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"API", "Billing", "Website"}, env.rootNames(t))
}

func TestMove_UnknownItem(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "move", "acme", "Nope", "Billing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReorder_RoundTripsTreeOutput(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "tree", "acme", "-o", "yaml")
	require.NoError(t, err)

	var items []models.ServerSideItem
	require.NoError(t, yaml.Unmarshal([]byte(out), &items))
	items[0], items[1] = items[1], items[0]
	items[0].Rank, items[1].Rank = 0, 1
	payload, err := yaml.Marshal(items)
	require.NoError(t, err)

	out, err = env.run(t, string(payload), "reorder", "acme", "-f", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 2 top-level items")
	assert.Equal(t, []string{"Website", "API"}, env.rootNames(t))
}

func TestReorder_RejectsNestedGroups(t *testing.T) {
	env := newTestEnv(t)

	items := env.page.Items
	nested := []models.ServerSideItem{items[1]}
	group := items[0]
	group.StatusPageItems = append(group.StatusPageItems, models.ServerSideItem{
		ID:                       "extra",
		Rank:                     2,
		StatusPageComponentGroup: &models.Ref{ID: "g", Name: "Nested"},
	})
	nested = append(nested, group)
	payload, err := yaml.Marshal(nested)
	require.NoError(t, err)

	_, err = env.run(t, string(payload), "reorder", "acme", "-f", "-")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApply(t *testing.T) {
	env := newTestEnv(t)

	fixture := `statusPages:
  - name: Northwind
    subdomain: northwind
    items:
      - type: COMPONENT
        name: Shop
  - name: Acme again
    subdomain: acme
`
	out, err := env.run(t, fixture, "apply", "-f", "-")
	require.NoError(t, err)
	assert.Equal(t, "Created 1, skipped 1, failed 0\n", out)

	_, err = env.run(t, "", "apply")
	assert.Error(t, err)
}

func TestConfigFromEnvironment(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("STATUSBOARD_SERVER", env.url)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", writeEmptyConfig(t), "list"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "acme")
}
