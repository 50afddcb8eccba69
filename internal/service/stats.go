package service

import (
	"context"
	"fmt"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/repository"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/session"
)

type SessionLister interface {
	Snapshot() []session.Session
}

type Stats struct {
	Registrants int               `json:"registrants"`
	Pending     int               `json:"pending"`
	Groups      int               `json:"groups"`
	Sessions    []session.Session `json:"sessions"`
}

type StatsService struct {
	store    repository.Store
	sessions SessionLister
}

func NewStatsService(store repository.Store, sessions SessionLister) *StatsService {
	return &StatsService{store: store, sessions: sessions}
}

func (s *StatsService) Stats(ctx context.Context) (Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.Registrants, err = s.store.Registrants().Count(ctx); err != nil {
		return Stats{}, fmt.Errorf("count registrants: %w", err)
	}
	if st.Pending, err = s.store.Pending().Count(ctx); err != nil {
		return Stats{}, fmt.Errorf("count pending: %w", err)
	}
	groups, err := s.store.Groups().List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list groups: %w", err)
	}
	st.Groups = len(groups)
	st.Sessions = s.sessions.Snapshot()
	if st.Sessions == nil {
		st.Sessions = []session.Session{}
	}
	return st, nil
}

func (s *StatsService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
