package webserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tejzpr/helpdesk/internal/db"
	"github.com/tejzpr/helpdesk/internal/manager"
	"github.com/tejzpr/helpdesk/internal/wire"
)

func (s *Server) getRequester(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	active, err := queryBool(r, "isActive")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", "getRequester", "id", id)

	var rec db.Requester
	if active != nil {
		rec, err = s.desk.Requesters.FindByIDAndActive(r.Context(), id, *active)
	} else {
		rec, err = s.desk.Requesters.FindByID(r.Context(), id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.FromRequester(rec))
}

func (s *Server) findAllRequesters(w http.ResponseWriter, r *http.Request) {
	var f manager.RequesterFilter
	var err error
	if f.Created, err = queryWindow(r, "created"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.IsActive, err = queryBool(r, "isActive"); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.findRequesters(w, r, "findAllRequesters", f)
}

func (s *Server) findRequestersByFullName(w http.ResponseWriter, r *http.Request) {
	f := manager.RequesterFilter{FullName: chi.URLParam(r, "fullName")}
	var err error
	if f.Created, err = queryWindow(r, "created"); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.findRequesters(w, r, "findRequestersByFullName", f)
}

func (s *Server) findRequestersByEmail(w http.ResponseWriter, r *http.Request) {
	f := manager.RequesterFilter{Email: chi.URLParam(r, "email")}
	var err error
	if f.Created, err = queryWindow(r, "created"); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.findRequesters(w, r, "findRequestersByEmail", f)
}

func (s *Server) findRequesters(w http.ResponseWriter, r *http.Request, op string, f manager.RequesterFilter) {
	p, err := s.pageRequest(r, "created")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", op,
		"fullName", f.FullName, "email", f.Email,
		"page", p.Page, "size", p.Size, "sortBy", p.SortBy, "sortDir", p.Direction.String())

	page, err := s.desk.Requesters.Find(r.Context(), f, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.RequesterPage(page))
}

func (s *Server) toggleRequesterActivation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", "toggleRequesterActivation", "id", id)

	rec, err := s.desk.Requesters.ToggleActivation(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.FromRequester(rec))
}

func (s *Server) deleteRequester(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", "deleteRequester", "id", id)

	rec, err := s.desk.Requesters.HardDelete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.FromRequester(rec))
}

func (s *Server) saveRequester(w http.ResponseWriter, r *http.Request) {
	var body wire.Requester
	if err := s.decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", "saveRequester", "id", body.ID, "email", body.Email)

	rec, err := s.desk.Requesters.Save(r.Context(), body.Record())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.FromRequester(rec))
}
