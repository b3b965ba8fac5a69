package notify

import (
	"context"
	"errors"
)

// Fanout forwards every call to all of its sinks. Permission is granted when
// any sink grants it.
type Fanout []Sink

func (f Fanout) PlaySound(profile SoundProfile) error {
	var errs []error
	for _, s := range f {
		if err := s.PlaySound(profile); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Permission() Permission {
	return f.merge(func(s Sink) Permission { return s.Permission() })
}

func (f Fanout) RequestPermission(ctx context.Context) (Permission, error) {
	var errs []error
	p := f.merge(func(s Sink) Permission {
		if s.Permission() != PermissionDefault {
			return s.Permission()
		}
		got, err := s.RequestPermission(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		return got
	})
	return p, errors.Join(errs...)
}

func (f Fanout) Raise(title, body string) error {
	var errs []error
	for _, s := range f {
		if s.Permission() != PermissionGranted {
			continue
		}
		if err := s.Raise(title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) merge(get func(Sink) Permission) Permission {
	if len(f) == 0 {
		return PermissionDenied
	}
	result := PermissionDenied
	for _, s := range f {
		switch get(s) {
		case PermissionGranted:
			result = PermissionGranted
		case PermissionDefault:
			if result == PermissionDenied {
				result = PermissionDefault
			}
		}
	}
	return result
}
