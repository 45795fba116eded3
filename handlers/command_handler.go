package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-betting/commands"
	"github.com/Dosada05/tournament-betting/middleware"
)

type CommandHandler struct {
	dispatcher *commands.Dispatcher
}

func NewCommandHandler(dispatcher *commands.Dispatcher) *CommandHandler {
	return &CommandHandler{dispatcher: dispatcher}
}

// Execute выполняет текстовую команду; права администратора дает валидный токен.
func (h *CommandHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Text string `json:"text"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Text == "" {
		badRequestResponse(w, r, errors.New("text is required"))
		return
	}

	principal, err := middleware.GetPrincipalFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	caller := commands.Caller{Name: "anonymous"}
	if principal != nil {
		caller = commands.Caller{Name: principal.Name, IsAdmin: principal.IsAdmin()}
	}

	reply := h.dispatcher.Execute(r.Context(), caller, input.Text)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"reply": reply}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
