package storage

import "context"

type NoopStorage struct {
}

func (s *NoopStorage) MakeRun(ctx context.Context, run string) error {
	return nil
}

func (s *NoopStorage) RemRun(ctx context.Context, run string) error {
	return nil
}

func (s *NoopStorage) Read(ctx context.Context, run string) ([]*Transition, error) {
	return nil, nil
}

func (s *NoopStorage) Write(ctx context.Context, run string, ts []*Transition) error {
	return nil
}

func (s *NoopStorage) Open(ctx context.Context) error {
	return nil
}

func (s *NoopStorage) Close(ctx context.Context) error {
	return nil
}
