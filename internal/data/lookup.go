package data

import (
	"strings"

	apperrors "github.com/hazadus/go-sonata/internal/errors"
)

// FindTrack ищет трек по полному ID или по однозначному префиксу ID
func (d *AppData) FindTrack(ref string) (*Track, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperrors.NotFound("трек", ref)
	}

	var found *Track
	for i := range d.Tracks {
		id := d.Tracks[i].ID
		if id == ref {
			return &d.Tracks[i], nil
		}
		if strings.HasPrefix(id, ref) {
			if found != nil {
				return nil, apperrors.NotFound("трек (неоднозначный префикс)", ref)
			}
			found = &d.Tracks[i]
		}
	}
	if found == nil {
		return nil, apperrors.NotFound("трек", ref)
	}
	return found, nil
}

// FindPlaylist ищет плейлист по ID, префиксу ID или точному названию
func (d *AppData) FindPlaylist(ref string) (*Playlist, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperrors.NotFound("плейлист", ref)
	}

	var found *Playlist
	for i := range d.Playlists {
		p := &d.Playlists[i]
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, nil
		}
		if strings.HasPrefix(p.ID, ref) {
			if found != nil {
				return nil, apperrors.NotFound("плейлист (неоднозначный префикс)", ref)
			}
			found = p
		}
	}
	if found == nil {
		return nil, apperrors.NotFound("плейлист", ref)
	}
	return found, nil
}
