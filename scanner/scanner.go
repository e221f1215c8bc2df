package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"gallerydiff/logging"
	"gallerydiff/types"
)

var errNoImage = errors.New("loader returned no image")

type resultRecorder interface {
	RecordResult(result LoadImageResult)
}

// LoadGallery decodes every regular file directly inside folder. Files that fail to
// decode are logged and left out; the gallery is ordered by filename.
func LoadGallery(ctx context.Context, folder string, loader ImageLoader, options LoadOptions) (types.Gallery, error) {
	names, err := ListFiles(folder)
	if err != nil {
		return nil, err
	}
	logging.DebugLog("Loading %d files from %s", len(names), folder)

	if options.Progress != nil {
		options.Progress.Start("loading "+filepath.Base(folder), len(names))
		defer options.Progress.Finish()
	}

	workers := options.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	loaded := make([]*types.GalleryImage, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			path := filepath.Join(folder, name)
			img, err := loader.LoadImage(path)
			if err == nil && img == nil {
				err = errNoImage
			}
			recordResult(options, LoadImageResult{Path: path, Success: err == nil, Error: err})
			if err == nil {
				loaded[i] = &types.GalleryImage{Filename: name, Content: img}
			} else {
				logging.DebugLog("Skipping %s file %s: %v", GetFileFormat(name), path, err)
			}

			if options.Progress != nil {
				options.Progress.Advance(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	gallery := make(types.Gallery, 0, len(names))
	for _, img := range loaded {
		if img != nil {
			gallery = append(gallery, *img)
		}
	}
	logging.LogInfo("Loaded %d of %d files from %s", len(gallery), len(names), folder)
	return gallery, nil
}

func recordResult(options LoadOptions, result LoadImageResult) {
	if recorder, ok := options.Progress.(resultRecorder); ok {
		recorder.RecordResult(result)
		return
	}
	errMsg := ""
	if result.Error != nil {
		errMsg = result.Error.Error()
	}
	logging.LogImageProcessed(result.Path, result.Success, errMsg)
}
