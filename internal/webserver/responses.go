package webserver

import (
	"net/http"

	"github.com/tejzpr/helpdesk/internal/manager"
	"github.com/tejzpr/helpdesk/internal/wire"
)

func (s *Server) getResponse(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", "getResponse", "id", id)

	rec, err := s.desk.Responses.FindByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.FromResponse(rec))
}

func (s *Server) findAllResponses(w http.ResponseWriter, r *http.Request) {
	var f manager.ResponseFilter
	var err error
	if f.Created, err = queryWindow(r, "created"); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.findResponses(w, r, "findAllResponses", f)
}

func (s *Server) findResponsesByRequester(w http.ResponseWriter, r *http.Request) {
	var f manager.ResponseFilter
	var err error
	if f.RequesterID, err = pathRef(r, "requesterId"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.Created, err = queryWindow(r, "created"); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.findResponses(w, r, "findResponsesByRequester", f)
}

func (s *Server) findResponsesByRequest(w http.ResponseWriter, r *http.Request) {
	var f manager.ResponseFilter
	var err error
	if f.RequestID, err = pathRef(r, "requestId"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.Created, err = queryWindow(r, "created"); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.findResponses(w, r, "findResponsesByRequest", f)
}

func (s *Server) findResponses(w http.ResponseWriter, r *http.Request, op string, f manager.ResponseFilter) {
	p, err := s.pageRequest(r, "created")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", op,
		"requesterId", deref(f.RequesterID), "requestId", deref(f.RequestID),
		"page", p.Page, "size", p.Size, "sortBy", p.SortBy, "sortDir", p.Direction.String())

	page, err := s.desk.Responses.Find(r.Context(), f, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.ResponsePage(page))
}

func (s *Server) deleteResponse(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", "deleteResponse", "id", id)

	rec, err := s.desk.Responses.HardDelete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.FromResponse(rec))
}

func (s *Server) saveResponse(w http.ResponseWriter, r *http.Request) {
	var body wire.Response
	if err := s.decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("calling", "op", "saveResponse", "id", body.ID, "requestId", body.RequestID, "requesterId", body.RequesterID)

	rec, err := s.desk.Responses.Save(r.Context(), body.Record())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBody(w, r, http.StatusOK, wire.FromResponse(rec))
}
