// Package upload turns user supplied images into stored objects:
// validate, crop, compress, store, record.
package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/events"
	"github.com/folio-space/core/internal/pkg/imaging"
	"github.com/folio-space/core/internal/pkg/objstore"
)

const batchConcurrency = 3

var (
	ErrStorage = errors.New("upload: object storage rejected the file")
	ErrPersist = errors.New("upload: could not record the asset")
)

// FileInput is one candidate upload.
type FileInput struct {
	Name        string
	ContentType string
	Data        []byte
	Crop        *imaging.Rect
}

type Options struct {
	SkipCompress bool
}

type Result struct {
	Asset      *models.AssetModel `json:"asset"`
	URL        string             `json:"url"`
	Compressed bool               `json:"compressed"`
}

// ItemResult is the outcome for one file of a batch. Exactly one of Result
// and Err is set.
type ItemResult struct {
	Name    string  `json:"name"`
	Result  *Result `json:"result,omitempty"`
	Err     error   `json:"-"`
	Message string  `json:"error,omitempty"`
}

type BatchResult struct {
	Items    []ItemResult `json:"items"`
	Uploaded int          `json:"uploaded"`
	Failed   int          `json:"failed"`
}

// URLs lists the public URLs of the successful items in input order.
func (b BatchResult) URLs() []string {
	out := make([]string, 0, b.Uploaded)
	for _, it := range b.Items {
		if it.Result != nil {
			out = append(out, it.Result.URL)
		}
	}
	return out
}

type Config struct {
	Prefix   string
	MaxBytes int64
	Compress imaging.CompressOptions
}

type Pipeline struct {
	store  objstore.Store
	assets AssetRepository
	notify events.Notifier
	log    *zap.Logger
	cfg    Config
	now    func() time.Time
}

func NewPipeline(store objstore.Store, assets AssetRepository, notify events.Notifier, cfg Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = imaging.DefaultMaxUploadBytes
	}
	return &Pipeline{store: store, assets: assets, notify: notify, log: log, cfg: cfg, now: time.Now}
}

func (p *Pipeline) MaxBytes() int64 { return p.cfg.MaxBytes }

// Process validates in before touching storage, then crops, compresses,
// stores and records it.
func (p *Pipeline) Process(ctx context.Context, in FileInput, opts Options) (*Result, error) {
	if err := imaging.Validate(in.Name, in.ContentType, int64(len(in.Data)), p.cfg.MaxBytes); err != nil {
		return nil, err
	}

	// Browsers send application/octet-stream for unknown extensions; sniff instead.
	declared := in.ContentType
	if !strings.HasPrefix(strings.ToLower(declared), "image/") {
		declared = ""
	}
	file := &imaging.File{Name: in.Name, ContentType: declared, Data: in.Data, ModTime: p.now()}
	file.ContentType = imaging.ContentTypeOf(file)

	if in.Crop != nil {
		data, ct, err := imaging.Crop(file.Data, *in.Crop)
		if err != nil {
			return nil, err
		}
		file = &imaging.File{Name: in.Name, ContentType: ct, Data: data, ModTime: p.now()}
	}

	out := file
	if !opts.SkipCompress {
		compressed, err := imaging.Compress(file, p.cfg.Compress)
		if err != nil {
			return nil, err
		}
		out = compressed
	}

	key, err := objstore.NewKey(p.cfg.Prefix, out.ContentType, p.now())
	if err != nil {
		return nil, err
	}
	url, err := p.store.Put(ctx, key, out.Data, out.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	asset := &models.AssetModel{
		Key:          key,
		URL:          url,
		OriginalName: in.Name,
		ContentType:  out.ContentType,
		Size:         out.Size(),
		Backend:      p.store.Name(),
	}
	if w, h, err := imaging.Dimensions(out.Data); err == nil {
		asset.Width, asset.Height = w, h
	}
	if err := p.assets.Create(ctx, asset); err != nil {
		if delErr := p.store.Delete(ctx, key); delErr != nil {
			p.log.Warn("remove orphaned object failed", zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	p.notify.Publish(ctx, events.ChangeEvent{Table: events.TableAssets, Type: events.Insert, ID: asset.ID})
	return &Result{Asset: asset, URL: url, Compressed: out != file}, nil
}

// ProcessBatch processes every file independently. A failing file is
// reported in its item and never stops the others.
func (p *Pipeline) ProcessBatch(ctx context.Context, files []FileInput, opts Options) BatchResult {
	items := make([]ItemResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, f := range files {
		g.Go(func() error {
			items[i].Name = f.Name
			if err := gctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			res, err := p.Process(gctx, f, opts)
			if err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	out := BatchResult{Items: items}
	for i := range out.Items {
		if out.Items[i].Err != nil {
			out.Failed++
			out.Items[i].Message = UserMessage(out.Items[i].Err)
			p.log.Debug("batch item rejected", zap.String("name", out.Items[i].Name), zap.Error(out.Items[i].Err))
			continue
		}
		out.Uploaded++
	}
	return out
}

// Remove deletes the stored object and its record.
func (p *Pipeline) Remove(ctx context.Context, id string) error {
	asset, err := p.assets.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := p.store.Delete(ctx, asset.Key); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := p.assets.Delete(ctx, id); err != nil {
		return err
	}
	p.notify.Publish(ctx, events.ChangeEvent{Table: events.TableAssets, Type: events.Delete, ID: id})
	return nil
}

// IsValidation reports whether err was caused by the input rather than a backend.
func IsValidation(err error) bool {
	return errors.Is(err, imaging.ErrEmptyFile) ||
		errors.Is(err, imaging.ErrNotImage) ||
		errors.Is(err, imaging.ErrTooLarge) ||
		errors.Is(err, imaging.ErrInvalidRect) ||
		errors.Is(err, imaging.ErrDecode) ||
		errors.Is(err, imaging.ErrInvalidDataURL)
}

// UserMessage is the static text shown for a failed upload.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrStorage):
		return "Falha ao enviar a imagem"
	case errors.Is(err, ErrPersist):
		return "Falha ao salvar a imagem"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Envio cancelado"
	default:
		return imaging.UserMessage(err)
	}
}
