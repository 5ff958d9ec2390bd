package tally

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// storageMock is a testify mock of SnapshotStorage.
type storageMock struct {
	mock.Mock
}

func newStorageMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *storageMock {
	m := &storageMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *storageMock) LoadCounts(ctx context.Context, name string) (map[string]int, error) {
	args := m.Called(ctx, name)
	counts, _ := args.Get(0).(map[string]int)
	return counts, args.Error(1)
}

func (m *storageMock) SaveCounts(ctx context.Context, name string, counts map[string]int) error {
	return m.Called(ctx, name, counts).Error(0)
}

func (m *storageMock) LoadGroups(ctx context.Context, name string) (map[string][]string, error) {
	args := m.Called(ctx, name)
	groups, _ := args.Get(0).(map[string][]string)
	return groups, args.Error(1)
}

func (m *storageMock) SaveGroups(ctx context.Context, name string, groups map[string][]string) error {
	return m.Called(ctx, name, groups).Error(0)
}

func (m *storageMock) LoadSums(ctx context.Context, name string) (map[string]float64, error) {
	args := m.Called(ctx, name)
	sums, _ := args.Get(0).(map[string]float64)
	return sums, args.Error(1)
}

func (m *storageMock) SaveSums(ctx context.Context, name string, sums map[string]float64) error {
	return m.Called(ctx, name, sums).Error(0)
}

var _ SnapshotStorage = (*storageMock)(nil)
