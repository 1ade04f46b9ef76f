package datagouv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogue struct {
	searches atomic.Int32
	details  atomic.Int32
}

func (c *catalogue) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/datasets/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/datasets/":
			c.searches.Add(1)
			if r.URL.Query().Get("q") == "" {
				http.Error(w, `{"message":"missing q"}`, http.StatusBadRequest)
				return
			}
			long := strings.Repeat("é", 250)
			_, _ = w.Write([]byte(`{"data":[
				{"id":"ipc","title":"Indice des prix","description":"` + long + `","page":"https://data.gouv.fr/ipc","resources":[{},{}],"organization":{"name":"INSEE"},"last_update":"2026-02-15"},
				{"id":"broken","title":"Broken","page":"https://data.gouv.fr/broken"}
			]}`))
		case "/datasets/ipc/":
			c.details.Add(1)
			_, _ = w.Write([]byte(`{"id":"ipc","title":"Indice des prix","page":"https://data.gouv.fr/ipc","resources":[
				{"id":"r1","title":"Série mensuelle","format":"csv","url":"` + "http://" + r.Host + `/files/ipc.csv","filesize":2048},
				{"id":"r2","title":"Notice","format":"pdf","url":"http://example.com/notice.pdf"}
			]}`))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/files/ipc.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Date;Valeur\n2026-01;0,3\n2026-02;0,3\n"))
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *catalogue) {
	t.Helper()
	cat := &catalogue{}
	ts := httptest.NewServer(cat.handler())
	t.Cleanup(ts.Close)
	return New(WithBaseURL(ts.URL+"/"), WithRateLimit(1000, 100)), cat
}

func TestSearchDatasets(t *testing.T) {
	c, cat := newTestClient(t)
	ctx := context.Background()

	got, err := c.SearchDatasets(ctx, "inflation", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ipc", got[0].ID)
	assert.Equal(t, "https://data.gouv.fr/ipc", got[0].URL)
	assert.Equal(t, 2, got[0].ResourcesCount)
	assert.Equal(t, "INSEE", got[0].Organization)
	assert.Equal(t, 200, len([]rune(got[0].Description)))
	assert.Empty(t, got[1].Organization)

	_, err = c.SearchDatasets(ctx, "inflation", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cat.searches.Load(), "same query and page hit the cache")
}

func TestSearchDatasetsUpstreamError(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.SearchDatasets(context.Background(), "", 1, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestGetDataset(t *testing.T) {
	c, cat := newTestClient(t)
	ctx := context.Background()

	d, err := c.GetDataset(ctx, "ipc")
	require.NoError(t, err)
	assert.Equal(t, "Indice des prix", d.Dataset.Title)
	require.Len(t, d.Resources, 2)
	assert.Equal(t, "CSV", d.Resources[0].Format)
	assert.Equal(t, int64(2048), d.Resources[0].Filesize)
	assert.Equal(t, "ipc", d.Resources[0].DatasetID)
	assert.Zero(t, d.Resources[1].Filesize)

	_, err = c.GetDataset(ctx, "ipc")
	require.NoError(t, err)
	assert.EqualValues(t, 1, cat.details.Load())

	_, err = c.GetDataset(ctx, "unknown")
	assert.Error(t, err)
}

func TestSearchResourcesSkipsFailingDatasets(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	all, err := c.SearchResources(ctx, "inflation", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	csv, err := c.SearchResources(ctx, "inflation", "csv")
	require.NoError(t, err)
	require.Len(t, csv, 1)
	assert.Equal(t, "r1", csv[0].ResourceID)
}

func TestFetchCSV(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	d, err := c.GetDataset(ctx, "ipc")
	require.NoError(t, err)

	res, err := c.FetchCSV(ctx, d.Resources[0].URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "valeur"}, res.Headers)
	assert.Equal(t, 2, res.RowCount)
	v, ok := res.Rows[1]["valeur"].Float()
	assert.True(t, ok)
	assert.Equal(t, 0.3, v)
}

func TestFormatFilesize(t *testing.T) {
	cases := map[int64]string{
		0:               "N/A",
		-5:              "N/A",
		512:             "512 B",
		1536:            "1.5 KB",
		5 * 1024 * 1024: "5.0 MB",
		3 << 30:         "3.0 GB",
		1024*1024 - 1:   "1024.0 KB",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatFilesize(in), "bytes=%d", in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "éé", truncate("ééé", 2))
}
