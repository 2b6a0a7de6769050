package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/events"
	"github.com/folio-space/core/internal/pkg/imaging"
	"github.com/folio-space/core/internal/pkg/pagination"
	"github.com/folio-space/core/internal/pkg/response"
	"github.com/folio-space/core/internal/pkg/testutil"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memStore) PublicURL(key string) string { return "https://cdn.test/" + key }
func (s *memStore) Check(context.Context) error { return nil }
func (s *memStore) Name() string                { return "mem" }
func (s *memStore) count() int                  { s.mu.Lock(); defer s.mu.Unlock(); return len(s.objects) }

type memAssets struct {
	mu        sync.Mutex
	items     map[string]*models.AssetModel
	createErr error
	seq       int
}

func newMemAssets() *memAssets { return &memAssets{items: map[string]*models.AssetModel{}} }

func (r *memAssets) Create(_ context.Context, a *models.AssetModel) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	a.ID = string(rune('a' + r.seq))
	r.items[a.ID] = a
	return nil
}

func (r *memAssets) List(context.Context, pagination.Query) ([]models.AssetModel, response.Pagination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AssetModel, 0, len(r.items))
	for _, a := range r.items {
		out = append(out, *a)
	}
	return out, response.Pagination{Total: int64(len(out))}, nil
}

func (r *memAssets) Get(_ context.Context, id string) (*models.AssetModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.items[id]; ok {
		return a, nil
	}
	return nil, ErrAssetNotFound
}

func (r *memAssets) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrAssetNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memAssets) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newPipeline(store *memStore, assets *memAssets, notify *testutil.Notifier) *Pipeline {
	return NewPipeline(store, assets, notify, Config{Prefix: "portfolio", MaxBytes: 1 << 20}, nil)
}

func TestProcessStoresSmallImageUntouched(t *testing.T) {
	store, assets, notify := newMemStore(), newMemAssets(), &testutil.Notifier{}
	p := newPipeline(store, assets, notify)
	data := pngData(t, 8, 4)

	res, err := p.Process(context.Background(), FileInput{Name: "a.png", ContentType: "image/png", Data: data}, Options{})
	require.NoError(t, err)
	assert.False(t, res.Compressed)
	assert.Regexp(t, `^https://cdn\.test/portfolio/\d{4}/\d{2}/[0-9a-z]{21}\.png$`, res.URL)
	assert.Equal(t, data, store.objects[res.Asset.Key])
	assert.Equal(t, 8, res.Asset.Width)
	assert.Equal(t, 4, res.Asset.Height)
	assert.Equal(t, "mem", res.Asset.Backend)

	evs := notify.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TableAssets, evs[0].Table)
	assert.Equal(t, events.Insert, evs[0].Type)
}

func TestProcessRejectsBeforeStorage(t *testing.T) {
	store, assets, notify := newMemStore(), newMemAssets(), &testutil.Notifier{}
	p := newPipeline(store, assets, notify)

	_, err := p.Process(context.Background(), FileInput{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hi")}, Options{})
	require.ErrorIs(t, err, imaging.ErrNotImage)
	assert.True(t, IsValidation(err))
	assert.Zero(t, store.count())
	assert.Empty(t, notify.Events())

	_, err = p.Process(context.Background(), FileInput{Name: "big.png", ContentType: "image/png", Data: make([]byte, 2<<20)}, Options{})
	require.ErrorIs(t, err, imaging.ErrTooLarge)
	assert.Zero(t, store.count())
}

func TestProcessCrops(t *testing.T) {
	store, assets := newMemStore(), newMemAssets()
	p := newPipeline(store, assets, &testutil.Notifier{})

	res, err := p.Process(context.Background(), FileInput{
		Name: "a.png", ContentType: "image/png", Data: pngData(t, 20, 20),
		Crop: &imaging.Rect{X: 2, Y: 2, Width: 10, Height: 5},
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Asset.Width)
	assert.Equal(t, 5, res.Asset.Height)

	_, err = p.Process(context.Background(), FileInput{
		Name: "a.png", ContentType: "image/png", Data: pngData(t, 20, 20),
		Crop: &imaging.Rect{Width: 0, Height: 5},
	}, Options{})
	assert.ErrorIs(t, err, imaging.ErrInvalidRect)
}

func TestProcessStorageFailure(t *testing.T) {
	store, assets := newMemStore(), newMemAssets()
	store.putErr = errors.New("bucket offline")
	p := newPipeline(store, assets, &testutil.Notifier{})

	_, err := p.Process(context.Background(), FileInput{Name: "a.png", Data: pngData(t, 2, 2)}, Options{})
	require.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, "Falha ao enviar a imagem", UserMessage(err))
	n, _ := assets.Count(context.Background())
	assert.Zero(t, n)
}

func TestProcessRemovesObjectWhenRecordFails(t *testing.T) {
	store, assets := newMemStore(), newMemAssets()
	assets.createErr = errors.New("db down")
	p := newPipeline(store, assets, &testutil.Notifier{})

	_, err := p.Process(context.Background(), FileInput{Name: "a.png", Data: pngData(t, 2, 2)}, Options{})
	require.ErrorIs(t, err, ErrPersist)
	assert.Zero(t, store.count())
	assert.Len(t, store.deleted, 1)
}

func TestProcessBatchSkipsInvalidFiles(t *testing.T) {
	store, assets := newMemStore(), newMemAssets()
	p := newPipeline(store, assets, &testutil.Notifier{})

	res := p.ProcessBatch(context.Background(), []FileInput{
		{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		{Name: "ok.png", ContentType: "image/png", Data: pngData(t, 3, 3)},
		{Name: "empty.png", ContentType: "image/png"},
	}, Options{})

	assert.Equal(t, 1, res.Uploaded)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "doc.pdf", res.Items[0].Name)
	assert.NotEmpty(t, res.Items[0].Message)
	assert.NotNil(t, res.Items[1].Result)
	assert.Len(t, res.URLs(), 1)
	assert.Equal(t, 1, store.count())
}

func TestRemove(t *testing.T) {
	store, assets, notify := newMemStore(), newMemAssets(), &testutil.Notifier{}
	p := newPipeline(store, assets, notify)
	res, err := p.Process(context.Background(), FileInput{Name: "a.png", Data: pngData(t, 2, 2)}, Options{})
	require.NoError(t, err)

	require.NoError(t, p.Remove(context.Background(), res.Asset.ID))
	assert.Zero(t, store.count())
	assert.ErrorIs(t, p.Remove(context.Background(), res.Asset.ID), ErrAssetNotFound)
	assert.Equal(t, events.Delete, notify.Events()[1].Type)
}

func multipartRequest(t *testing.T, path, field string, files map[string][]byte, extra map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range extra {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newRouter(p *Pipeline) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(p).RegisterRoutes(r.Group("/api/v1"), func(c *gin.Context) { c.Next() })
	return r
}

func TestUploadHandler(t *testing.T) {
	store, assets := newMemStore(), newMemAssets()
	r := newRouter(newPipeline(store, assets, &testutil.Notifier{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/api/v1/admin/uploads", "file",
		map[string][]byte{"a.png": pngData(t, 6, 6)},
		map[string]string{"crop_x": "1", "crop_y": "1", "crop_width": "4", "crop_height": "4"}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"width":4`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/api/v1/admin/uploads", "file",
		map[string][]byte{"a.txt": []byte("plain text")}, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, store.count())
}

func TestUploadBatchHandler(t *testing.T) {
	store, assets := newMemStore(), newMemAssets()
	r := newRouter(newPipeline(store, assets, &testutil.Notifier{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "/api/v1/admin/uploads/batch", "files",
		map[string][]byte{"a.png": pngData(t, 3, 3), "b.txt": []byte("nope")}, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"uploaded":1`)
	assert.Contains(t, w.Body.String(), `"failed":1`)
}

func TestMergeKeepsFormOrder(t *testing.T) {
	processed := BatchResult{
		Items:    []ItemResult{{Name: "b.png"}, {Name: "d.png"}},
		Uploaded: 2,
	}
	tests := []struct {
		name     string
		rejected []Rejected
		want     []string
	}{
		{"none", nil, []string{"b.png", "d.png"}},
		{"first and middle", []Rejected{{Index: 0, Item: ItemResult{Name: "a.png"}}, {Index: 2, Item: ItemResult{Name: "c.png"}}},
			[]string{"a.png", "b.png", "c.png", "d.png"}},
		{"trailing", []Rejected{{Index: 2, Item: ItemResult{Name: "e.png"}}, {Index: 3, Item: ItemResult{Name: "f.png"}}},
			[]string{"b.png", "d.png", "e.png", "f.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := processed.Merge(tt.rejected)
			names := make([]string, 0, len(got.Items))
			for _, it := range got.Items {
				names = append(names, it.Name)
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, len(tt.rejected), got.Failed)
		})
	}
}

func TestReadMultipartBatchRecordsPosition(t *testing.T) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range []struct {
		name string
		size int
	}{{"small.png", 4}, {"huge.png", 64}, {"tiny.png", 2}} {
		part, err := w.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{1}, f.size))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)

	inputs, rejected := ReadMultipartBatch(form.File["files"], 16)
	require.Len(t, inputs, 2)
	require.Len(t, rejected, 1)
	assert.Equal(t, 1, rejected[0].Index)
	assert.Equal(t, "huge.png", rejected[0].Item.Name)
	assert.ErrorIs(t, rejected[0].Item.Err, imaging.ErrTooLarge)

	res := BatchResult{Items: []ItemResult{{Name: "small.png"}, {Name: "tiny.png"}}}.Merge(rejected)
	assert.Equal(t, "huge.png", res.Items[1].Name)
}

func TestAssetRepositoryDeleteMissing(t *testing.T) {
	db, mock := testutil.MockDB(t)
	mock.ExpectExec("UPDATE `assets` SET `deleted_at`").WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewAssetRepository(db).Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}
