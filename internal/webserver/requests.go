package webserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tejzpr/helpdesk/internal/apperr"
	"github.com/tejzpr/helpdesk/internal/db"
	"github.com/tejzpr/helpdesk/internal/manager"
	"github.com/tejzpr/helpdesk/internal/wire"
)

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	solved, err := queryBool(r, "isSolved")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", "getRequest", "id", id)

	var rec db.Request
	if solved != nil {
		rec, err = s.desk.Requests.FindByIDAndSolved(r.Context(), id, *solved)
	} else {
		rec, err = s.desk.Requests.FindByID(r.Context(), id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.FromRequest(rec))
}

func (s *Server) findAllRequests(w http.ResponseWriter, r *http.Request) {
	var f manager.RequestFilter
	var err error
	if f.Created, err = queryWindow(r, "created"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.IsSolved, err = queryBool(r, "isSolved"); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.findRequests(w, r, "findAllRequests", "created", f)
}

func (s *Server) findRequestsByRequester(w http.ResponseWriter, r *http.Request) {
	var f manager.RequestFilter
	var err error
	if f.RequesterID, err = pathRef(r, "requesterId"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.Created, err = queryWindow(r, "created"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.IsSolved, err = queryBool(r, "isSolved"); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.findRequests(w, r, "findRequestsByRequester", "created", f)
}

func (s *Server) findRequestsBySolvedFlag(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "isSolved")
	solved, err := parseBool("isSolved", raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f := manager.RequestFilter{IsSolved: &solved}
	if f.Created, err = queryWindow(r, "created"); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.findRequests(w, r, "findRequestsBySolvedFlag", "created", f)
}

func (s *Server) findRequestsBySolvedWindow(w http.ResponseWriter, r *http.Request) {
	window, err := queryWindow(r, "solved")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if window == nil {
		q := r.URL.Query()
		s.writeError(w, r, apperr.BadRequest("solvedBefore:%s,solvedAfter:%s", q.Get("solvedBefore"), q.Get("solvedAfter")))
		return
	}
	s.findRequests(w, r, "findRequestsBySolvedWindow", "solved", manager.RequestFilter{Solved: window})
}

func (s *Server) findRequests(w http.ResponseWriter, r *http.Request, op, defaultSort string, f manager.RequestFilter) {
	p, err := s.pageRequest(r, defaultSort)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", op,
		"requesterId", deref(f.RequesterID),
		"page", p.Page, "size", p.Size, "sortBy", p.SortBy, "sortDir", p.Direction.String())

	page, err := s.desk.Requests.Find(r.Context(), f, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.RequestPage(page))
}

func (s *Server) solveRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", "solveRequest", "id", id)

	rec, err := s.desk.Requests.SolveIssue(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.FromRequest(rec))
}

func (s *Server) deleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", "deleteRequest", "id", id)

	rec, err := s.desk.Requests.HardDelete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.FromRequest(rec))
}

func (s *Server) saveRequest(w http.ResponseWriter, r *http.Request) {
	var body wire.Request
	if err := s.decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", "saveRequest", "id", body.ID, "requesterId", body.RequesterID)

	rec, err := s.desk.Requests.Save(r.Context(), body.Record())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.FromRequest(rec))
}
