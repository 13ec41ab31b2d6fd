package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	"github.com/whatsmynameidontknow/crm-admin/internal/report"
	"github.com/whatsmynameidontknow/crm-admin/internal/session"
)

func openEntityCmd(name string) tea.Cmd {
	return func() tea.Msg { return openEntityMsg{name: name} }
}

func (m Model) signInCmd(username, password string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		s, err := backend.SignIn(ctx, username, password)
		if err != nil {
			return signInFailedMsg{err: err}
		}
		return signedInMsg{session: s}
	}
}

// requestPage issues a fetch of backend page and tags it so that a slower,
// older response cannot overwrite a newer one. backendPage only moves once
// the page has arrived.
func (m *Model) requestPage(page int) tea.Cmd {
	m.requestSeq++
	m.pendingPage = page
	m.loading = true

	seq, d, sess, limit, backend, newCtx := m.requestSeq, m.desc, m.session, m.limit, m.backend, m.ctx
	m.log.WithFields(logrus.Fields{"entity": d.Path, "page": page, "seq": seq}).Debug("fetching page")
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		p, err := backend.List(ctx, sess, d, page, limit)
		return pageLoadedMsg{seq: seq, entity: d.Path, page: page, result: p, err: err}
	}
}

func (m Model) loadRecordCmd(key string) tea.Cmd {
	d, sess, backend := m.desc, m.session, m.backend
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		row, err := backend.Get(ctx, sess, d, key)
		return recordLoadedMsg{key: key, row: row, err: err}
	}
}

func (m Model) loadOptionsCmd() tea.Cmd {
	sess, backend := m.session, m.backend
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		opts, err := backend.ClientOptions(ctx, sess)
		return optionsLoadedMsg{options: opts, err: err}
	}
}

func (m Model) submitCmd(f *form) tea.Cmd {
	d, sess, backend := m.desc, m.session, m.backend
	row, editing := f.row(), f.editing
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		if editing {
			return mutationDoneMsg{verb: "updated", err: backend.Update(ctx, sess, d, row)}
		}
		return mutationDoneMsg{verb: "added", err: backend.Create(ctx, sess, d, row)}
	}
}

func (m Model) deleteCmd(key string) tea.Cmd {
	d, sess, backend := m.desc, m.session, m.backend
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		return mutationDoneMsg{verb: "deleted", err: backend.Delete(ctx, sess, d, key)}
	}
}

// startBulkDelete deletes keys through a small worker pool. Each finished
// key is reported on the returned channel, which is closed at the end.
func (m Model) startBulkDelete(keys []string) tea.Cmd {
	return func() tea.Msg {
		progressCh := make(chan bulkProgressMsg)
		m.deleteConcurrent(keys, progressCh)
		return bulkStartedMsg{ch: progressCh, total: len(keys)}
	}
}

func (m Model) deleteConcurrent(keys []string, progressCh chan<- bulkProgressMsg) {
	d, sess, backend, log, newCtx := m.desc, m.session, m.backend, m.log, m.ctx

	pool, err := ants.NewPool(bulkWorkers)
	if err != nil {
		log.WithError(err).Error("could not start delete workers")
		go func() {
			for _, k := range keys {
				progressCh <- bulkProgressMsg{result: report.Result{Key: k, Err: err}}
			}
			close(progressCh)
		}()
		return
	}

	go func() {
		defer pool.Release()
		wg := new(sync.WaitGroup)
		for _, k := range keys {
			wg.Add(1)
			err := pool.Submit(func() {
				defer wg.Done()
				ctx, cancel := newCtx()
				err := backend.Delete(ctx, sess, d, k)
				cancel()
				if err != nil {
					log.WithFields(logrus.Fields{"entity": d.Path, "key": k}).WithError(err).Warn("bulk delete failed")
				}
				progressCh <- bulkProgressMsg{result: report.Result{Key: k, Err: err}}
			})
			if err != nil {
				wg.Done()
				progressCh <- bulkProgressMsg{result: report.Result{Key: k, Err: err}}
			}
		}
		wg.Wait()
		close(progressCh)
	}()
}

func waitForProgress(ch <-chan bulkProgressMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return bulkDoneMsg{}
		}
		return msg
	}
}

// showNotice replaces the toast and schedules its expiry.
func (m *Model) showNotice(kind noticeKind, text string) tea.Cmd {
	m.noticeID++
	id := m.noticeID
	m.notice = &notice{id: id, kind: kind, text: text}
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

func (m *Model) saveSession() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.session); err != nil {
		m.log.WithError(err).Warn("could not persist session")
	}
}

// signOut drops the session everywhere and returns to the sign-in form.
func (m *Model) signOut(reason string) tea.Cmd {
	if m.store != nil {
		if err := m.store.Clear(); err != nil {
			m.log.WithError(err).Warn("could not clear session")
		}
	}
	m.log.WithField("user", m.session.Username).Info("signed out")
	m.userInput.SetValue(m.session.Username)
	m.session = session.Session{}
	m.state = stateSignIn
	m.signingIn = false
	m.form = nil
	m.rows = nil
	m.table = nil
	m.inputMode = false
	m.filterInput.SetValue("")
	m.passInput.SetValue("")
	m.userInput.Blur()
	m.passInput.Focus()
	if m.userInput.Value() == "" {
		m.passInput.Blur()
		m.userInput.Focus()
	}
	m.err = nil
	if reason == "" {
		m.notice = nil
		return nil
	}
	return m.showNotice(noticeError, reason)
}
