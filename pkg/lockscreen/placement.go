package lockscreen

import (
	"errors"
	"path/filepath"

	"github.com/dixieflatline76/SpiceLock/pkg/fsx"
	"github.com/dixieflatline76/SpiceLock/pkg/media"
	"github.com/dixieflatline76/SpiceLock/util/log"
)

// Placement owns the files the agent plays: one video and one preview image
// per identifier, in directories shared with the vendor's own assets.
type Placement struct {
	videosDir     string
	thumbnailsDir string
}

// NewPlacement creates a Placement for the given directories.
func NewPlacement(videosDir, thumbnailsDir string) *Placement {
	return &Placement{videosDir: videosDir, thumbnailsDir: thumbnailsDir}
}

// VideoPath returns where the video for id is placed.
func (p *Placement) VideoPath(id string) (string, error) {
	if err := media.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(p.videosDir, id+media.DefaultProfile.Extension), nil
}

// ThumbnailPath returns where the preview image for id is placed.
func (p *Placement) ThumbnailPath(id string) (string, error) {
	if err := media.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(p.thumbnailsDir, id+".jpg"), nil
}

// PlaceVideo atomically copies src over the placed video for id.
func (p *Placement) PlaceVideo(src, id string) (string, error) {
	dst, err := p.VideoPath(id)
	if err != nil {
		return "", err
	}
	if err := fsx.CopyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Delete removes the placed files for id. Only exact paths derived from id are
// touched so the vendor's own assets are never matched. Failures are logged
// and joined.
func (p *Placement) Delete(id string, extra ...string) error {
	video, err := p.VideoPath(id)
	if err != nil {
		return err
	}
	thumb, _ := p.ThumbnailPath(id)

	var errs []error
	for _, f := range append([]string{video, thumb}, extra...) {
		if f == "" {
			continue
		}
		if err := fsx.RemoveIfExists(f); err != nil {
			log.Printf("Placement: failed to delete %s: %v", f, err)
			errs = append(errs, err)
			continue
		}
		log.Debugf("Placement: deleted %s", f)
	}
	return errors.Join(errs...)
}
