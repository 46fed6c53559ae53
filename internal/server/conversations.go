package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/cast"

	"github.com/yourorg/shoot/internal/chat"
	"github.com/yourorg/shoot/pkg/types"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.SendRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	reply, err := s.chat.Send(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.chat.Conversation(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

type conversationPatch struct {
	CurrentSpecID string `json:"currentSpecId"`
	CurrentAppID  string `json:"currentAppId"`
	LastAction    string `json:"lastAction"`
}

func (s *Server) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationPatch
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	conv := &types.Conversation{
		ConversationID: id,
		CurrentSpecID:  req.CurrentSpecID,
		CurrentAppID:   req.CurrentAppID,
		LastAction:     req.LastAction,
	}
	if err := s.chat.UpdateConversation(conv); err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.chat.Conversation(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.Clear(mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	limit := cast.ToInt(r.URL.Query().Get("limit"))
	msgs, err := s.chat.Messages(mux.Vars(r)["id"], limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []types.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}
