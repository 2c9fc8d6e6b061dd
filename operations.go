package notestore

import "context"

// Delete removes the file at the given storage path.
func (s *Store) Delete(ctx context.Context, path string) error {
	mount, _, rel, err := s.resolve(path)
	if err != nil {
		return err
	}

	if mount.options.ReadOnly {
		return ErrReadOnly
	}

	s.logger.Debug("Delete '%s'", path)
	return mount.storage.Delete(ctx, rel)
}

// List returns the notebook resources beneath the given directory path.
// Resource paths are rebased into the store namespace, so a backend mounted
// at /team/ reports /team/x.ipynb rather than /x.ipynb.
func (s *Store) List(ctx context.Context, path string, recursive bool) ([]Resource, error) {
	mount, mountPoint, rel, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("List '%s' (recursive=%t)", path, recursive)

	resources, err := mount.storage.List(ctx, rel, recursive)
	if err != nil {
		return nil, err
	}

	if mountPoint != "" {
		for i := range resources {
			resources[i].Path = "/" + mountPoint + resources[i].Path
		}
	}

	return resources, nil
}

// Move renames the file at source to destination. Both paths must resolve to
// the same mount; cross-mount moves are not coordinated by this layer.
func (s *Store) Move(ctx context.Context, source, destination string) error {
	srcMount, srcPoint, srcRel, err := s.resolve(source)
	if err != nil {
		return err
	}

	dstMount, dstPoint, dstRel, err := s.resolve(destination)
	if err != nil {
		return err
	}

	if srcMount != dstMount || srcPoint != dstPoint {
		return ErrInvalid
	}

	if srcMount.options.ReadOnly {
		return ErrReadOnly
	}

	s.logger.Debug("Move '%s' -> '%s'", source, destination)
	return srcMount.storage.Move(ctx, srcRel, dstRel)
}

// Read returns the content of the file at the given storage path, or
// (nil, nil) when no such file exists.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	mount, _, rel, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Read '%s'", path)
	return mount.storage.Read(ctx, rel)
}

// Write stores content at the given storage path, replacing any existing
// content unconditionally.
func (s *Store) Write(ctx context.Context, path string, content []byte) error {
	mount, _, rel, err := s.resolve(path)
	if err != nil {
		return err
	}

	if mount.options.ReadOnly {
		return ErrReadOnly
	}

	s.logger.Debug("Write '%s' (%d bytes)", path, len(content))
	return mount.storage.Write(ctx, rel, content)
}
