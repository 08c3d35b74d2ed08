package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/logger"
	"prestamos-backend/internal/session"
)

type chatService struct {
	sessions     session.Store
	inventory    InventoryService
	reservations ReservationService
	loans        LoanService
	loc          *time.Location
	now          func() time.Time
}

func NewChatService(sessions session.Store, inventory InventoryService, reservations ReservationService, loans LoanService, loc *time.Location) ChatService {
	return &chatService{
		sessions:     sessions,
		inventory:    inventory,
		reservations: reservations,
		loans:        loans,
		loc:          loc,
		now:          time.Now,
	}
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeMessage lowercases and strips diacritics so "Sí" and "si"
// match the same token.
func normalizeMessage(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}

// inferShift maps local time of day to the institutional shift. Outside
// the defined windows everything defaults to night.
func inferShift(t time.Time) domain.Shift {
	m := t.Hour()*60 + t.Minute()
	switch {
	case m >= 6*60 && m <= 12*60:
		return domain.ShiftMorning
	case m >= 13*60 && m <= 17*60:
		return domain.ShiftAfternoon
	case m >= 17*60+15 && m < 23*60:
		return domain.ShiftNight
	}
	return domain.ShiftNight
}

func parseLevel(tok string) (domain.Level, bool) {
	switch tok {
	case "secundario", "secundaria", "sec":
		return domain.LevelSecondary, true
	case "superior", "sup", "terciario":
		return domain.LevelHigher, true
	case "personal", "docente", "per", "personal/docente":
		return domain.LevelStaff, true
	}
	return "", false
}

func parseProgram(tok string) (domain.Program, bool) {
	switch tok {
	case "tcd", "ciencia de datos", "datos":
		return domain.ProgramTCD, true
	case "ptec", "profesorado", "tecnologias":
		return domain.ProgramPTEC, true
	}
	return "", false
}

func parseShiftWord(tok string) (domain.Shift, bool) {
	switch tok {
	case "manana", "m":
		return domain.ShiftMorning, true
	case "tarde", "t":
		return domain.ShiftAfternoon, true
	case "noche", "n":
		return domain.ShiftNight, true
	}
	return "", false
}

func parseCategoryWord(tok string) (domain.Category, bool) {
	switch tok {
	case "notebook", "notebooks", "nb":
		return domain.CategoryNotebook, true
	case "tablet", "tablets", "tb":
		return domain.CategoryTablet, true
	case "alargue", "alargues", "al":
		return domain.CategoryExtensionCord, true
	}
	return "", false
}

func isYes(msg string) bool {
	switch msg {
	case "si", "confirmo", "ok", "dale":
		return true
	}
	return false
}

func isNo(msg string) bool {
	switch msg {
	case "no", "cancelar", "cancel":
		return true
	}
	return false
}

const helpText = "Puedo ayudarte con el equipamiento. Probá:\n" +
	"• reservar NB-01 (o reservar notebook)\n" +
	"• devolver NB-01\n" +
	"• mis reservas / mis prestamos\n" +
	"• cancelar reserva"

var helpSuggestions = []string{"reservar notebook", "mis reservas", "mis prestamos", "menu"}

func reply(text string, suggestions ...string) *ChatReply {
	return &ChatReply{Reply: text, Suggestions: suggestions}
}

func (s *chatService) HandleMessage(ctx context.Context, requester, message string) (*ChatReply, error) {
	if requester == "" {
		return nil, fmt.Errorf("%w: requester is required", domain.ErrValidation)
	}
	msg := normalizeMessage(message)

	sess, err := s.sessions.Get(ctx, requester)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = &session.Session{Requester: requester}
	}

	switch {
	case msg == "menu" || msg == "ayuda" || msg == "help":
		return reply(helpText, helpSuggestions...), nil

	case msg == "mis reservas":
		return s.listReservations(ctx, requester)

	case msg == "mis prestamos":
		return s.listLoans(ctx, requester)

	case msg == "cancelar reserva":
		if sess.Pending != nil {
			if err := s.sessions.Clear(ctx, requester); err != nil {
				return nil, err
			}
		}
		return s.cancelActiveReservation(ctx, requester)

	case strings.HasPrefix(msg, "cambiar a "):
		return s.changeShift(ctx, sess, strings.TrimPrefix(msg, "cambiar a "))

	case strings.HasPrefix(msg, "devolver ") || strings.HasPrefix(msg, "entregar "):
		fields := strings.Fields(msg)
		return s.stageReturn(ctx, sess, fields[len(fields)-1])

	case strings.HasPrefix(msg, "reservar "):
		return s.stageReserve(ctx, sess, strings.TrimSpace(strings.TrimPrefix(msg, "reservar ")))
	}

	if sess.Pending != nil {
		if isNo(msg) {
			if err := s.sessions.Clear(ctx, requester); err != nil {
				return nil, err
			}
			return reply("Listo, no hago nada. 👍", "menu"), nil
		}
		switch sess.Pending.Flow {
		case session.FlowReserve:
			return s.advanceReserve(ctx, sess, msg, message)
		case session.FlowReturn:
			if isYes(msg) {
				return s.finalizeReturn(ctx, sess)
			}
			return reply(fmt.Sprintf("¿Confirmás la devolución de %s? (sí/no)", sess.Pending.Code), "sí", "no"), nil
		}
	}

	if msg == "cancelar" {
		return s.cancelActiveReservation(ctx, requester)
	}
	return reply(helpText, helpSuggestions...), nil
}

func (s *chatService) listReservations(ctx context.Context, requester string) (*ChatReply, error) {
	active, err := s.reservations.ListActiveForRequester(ctx, requester)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return reply("No tenés reservas activas.", "reservar notebook"), nil
	}
	var b strings.Builder
	b.WriteString("Tus reservas activas:\n")
	for i := range active {
		r := &active[i]
		target := r.ItemCode
		if target == "" {
			target = r.Category.Display() + " (sin unidad)"
		}
		fmt.Fprintf(&b, "• %s, expira %s\n", target, r.ExpiresAt.In(s.loc).Format("02/01 15:04"))
	}
	return reply(strings.TrimRight(b.String(), "\n"), "cancelar reserva"), nil
}

func (s *chatService) listLoans(ctx context.Context, requester string) (*ChatReply, error) {
	open, err := s.loans.ListOpenByRequester(ctx, requester)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return reply("No tenés préstamos abiertos.", "reservar notebook"), nil
	}
	var b strings.Builder
	b.WriteString("Tus préstamos abiertos:\n")
	for i := range open {
		l := &open[i]
		fmt.Fprintf(&b, "• %s desde %s\n", l.ItemCode, l.StartedAt.In(s.loc).Format("02/01 15:04"))
	}
	sug := []string{}
	if len(open) > 0 {
		sug = append(sug, "devolver "+open[0].ItemCode)
	}
	return reply(strings.TrimRight(b.String(), "\n"), sug...), nil
}

func (s *chatService) cancelActiveReservation(ctx context.Context, requester string) (*ChatReply, error) {
	r, err := s.reservations.CancelActiveFor(ctx, requester, requester, "cancelada por chat")
	if errors.Is(err, domain.ErrNotFound) {
		return reply("No encontré una reserva activa tuya.", "reservar notebook"), nil
	}
	if err != nil {
		return nil, err
	}
	target := r.ItemCode
	if target == "" {
		target = r.Category.Display()
	}
	return reply(fmt.Sprintf("Reserva de %s cancelada. ✅", target), "reservar notebook"), nil
}

func (s *chatService) changeShift(ctx context.Context, sess *session.Session, tok string) (*ChatReply, error) {
	if sess.Pending == nil || sess.Pending.Flow != session.FlowReserve {
		return reply("No hay una reserva en curso para cambiar el turno.", "reservar notebook"), nil
	}
	shift, ok := parseShiftWord(strings.TrimSpace(tok))
	if !ok {
		return reply("No entendí el turno. Opciones: mañana, tarde, noche.", "cambiar a mañana", "cambiar a tarde", "cambiar a noche"), nil
	}
	if sess.Pending.Level != "" {
		shift = domain.NormalizeShift(sess.Pending.Level, shift)
	}
	sess.Pending.Shift = shift
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}
	return reply(fmt.Sprintf("Turno cambiado a %s.", shift.Display())), nil
}

func (s *chatService) stageReturn(ctx context.Context, sess *session.Session, code string) (*ChatReply, error) {
	loan, err := s.loans.FindOpenLoan(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return reply(fmt.Sprintf("No encontré un préstamo abierto para %s.", strings.ToUpper(code)), "mis prestamos"), nil
	}
	if err != nil {
		return nil, err
	}
	if loan.Requester != sess.Requester {
		return reply(fmt.Sprintf("El préstamo de %s no está a tu nombre.", loan.ItemCode), "mis prestamos"), nil
	}

	sess.Pending = &session.PendingIntent{
		Flow:   session.FlowReturn,
		Code:   loan.ItemCode,
		ItemID: loan.ItemID,
		LoanID: loan.ID,
	}
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}
	return reply(fmt.Sprintf("¿Confirmás la devolución de %s? (sí/no)", loan.ItemCode), "sí", "no"), nil
}

func (s *chatService) stageReserve(ctx context.Context, sess *session.Session, target string) (*ChatReply, error) {
	active, err := s.reservations.ListActiveForRequester(ctx, sess.Requester)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return reply("Ya tenés una reserva activa. Cancelala antes de crear otra.", "cancelar reserva", "mis reservas"), nil
	}

	pending := &session.PendingIntent{
		Flow:   session.FlowReserve,
		Cursor: session.CursorAwaitingLevel,
		Shift:  inferShift(s.now().In(s.loc)),
	}

	if cat, ok := parseCategoryWord(target); ok {
		pending.Category = cat
	} else {
		code := strings.ToUpper(strings.Fields(target)[0])
		it, err := s.inventory.GetItem(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return reply(fmt.Sprintf("No encontré el equipo %s.", code), "reservar notebook"), nil
		}
		if err != nil {
			return nil, err
		}
		// State is rechecked inside the reserve transaction; this read
		// only shapes the conversational reply.
		if it.Status != domain.ItemStatusAvailable {
			return reply(fmt.Sprintf("%s no está disponible ahora (%s).", it.Code, it.Status), "reservar notebook"), nil
		}
		pending.Code = it.Code
		pending.ItemID = it.ID
		pending.Category = it.Category
	}

	sess.Pending = pending
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}
	return reply("¿Para qué nivel es? (Secundario / Superior / Personal)", "Secundario", "Superior", "Personal"), nil
}

func (s *chatService) advanceReserve(ctx context.Context, sess *session.Session, msg, raw string) (*ChatReply, error) {
	p := sess.Pending
	switch p.Cursor {
	case session.CursorAwaitingLevel:
		level, ok := parseLevel(msg)
		if !ok {
			return reply("No entendí el nivel. Opciones: Secundario, Superior, Personal.", "Secundario", "Superior", "Personal"), nil
		}
		p.Level = level
		p.Shift = domain.NormalizeShift(level, p.Shift)
		if level == domain.LevelHigher {
			p.Cursor = session.CursorAwaitingProgram
			if err := s.sessions.Set(ctx, sess); err != nil {
				return nil, err
			}
			return reply("¿De qué carrera? (TCD / PTEC)", "TCD", "PTEC"), nil
		}
		p.Cursor = session.CursorAwaitingClassroom
		if err := s.sessions.Set(ctx, sess); err != nil {
			return nil, err
		}
		return reply("¿En qué aula vas a estar? (escribí - si no aplica)", "-"), nil

	case session.CursorAwaitingProgram:
		prog, ok := parseProgram(msg)
		if !ok {
			return reply("No entendí la carrera. Opciones: TCD, PTEC.", "TCD", "PTEC"), nil
		}
		p.Program = prog
		p.Cursor = session.CursorAwaitingYear
		if err := s.sessions.Set(ctx, sess); err != nil {
			return nil, err
		}
		return reply("¿Qué año cursás? (1 o 2)", "1", "2"), nil

	case session.CursorAwaitingYear:
		year, err := strconv.Atoi(msg)
		if err != nil || year < 1 || year > 2 {
			return reply("El año tiene que ser 1 o 2.", "1", "2"), nil
		}
		p.Year = int32(year)
		p.Cursor = session.CursorAwaitingClassroom
		if err := s.sessions.Set(ctx, sess); err != nil {
			return nil, err
		}
		return reply("¿En qué aula vas a estar? (escribí - si no aplica)", "-"), nil

	case session.CursorAwaitingClassroom:
		classroom := strings.TrimSpace(raw)
		if classroom == "-" || msg == "ninguna" {
			classroom = ""
		}
		p.Classroom = classroom
		p.Cursor = session.CursorAwaitingConfirm
		if err := s.sessions.Set(ctx, sess); err != nil {
			return nil, err
		}
		return reply(s.reserveSummary(p), "confirmo", "no"), nil

	case session.CursorAwaitingConfirm:
		if isYes(msg) {
			return s.finalizeReserve(ctx, sess)
		}
		return reply(s.reserveSummary(p), "confirmo", "no"), nil
	}

	logger.Warn("Pending reserve intent with unknown cursor", "requester", sess.Requester, "cursor", p.Cursor)
	return reply(helpText, helpSuggestions...), nil
}

func (s *chatService) reserveSummary(p *session.PendingIntent) string {
	target := p.Code
	if target == "" {
		target = p.Category.Display()
	}
	aula := p.Classroom
	if aula == "" {
		aula = "sin aula"
	}
	return fmt.Sprintf("Vas a reservar %s (%s, turno %s, %s). ¿Confirmás? (sí/no)",
		target, p.Level.Display(), p.Shift.Display(), aula)
}

func (s *chatService) finalizeReserve(ctx context.Context, sess *session.Session) (*ChatReply, error) {
	p := sess.Pending
	res, err := s.reservations.Reserve(ctx, ReserveRequest{
		ItemCode:  p.Code,
		Category:  p.Category,
		Level:     p.Level,
		Shift:     p.Shift,
		Classroom: p.Classroom,
		Requester: sess.Requester,
		ChannelID: "chat",
	})
	if err != nil {
		if errors.Is(err, domain.ErrItemNotAvailable) || errors.Is(err, domain.ErrValidation) {
			if clearErr := s.sessions.Clear(ctx, sess.Requester); clearErr != nil {
				return nil, clearErr
			}
			return reply("No pude crear la reserva: el equipo ya no está disponible. 😕", "reservar notebook"), nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			if clearErr := s.sessions.Clear(ctx, sess.Requester); clearErr != nil {
				return nil, clearErr
			}
			return reply("No encontré ese equipo. 😕", "reservar notebook"), nil
		}
		return nil, err
	}
	if err := s.sessions.Clear(ctx, sess.Requester); err != nil {
		return nil, err
	}

	target := res.ItemCode
	if target == "" {
		target = res.Category.Display()
	}
	return reply(fmt.Sprintf("¡Listo! Reservé %s hasta las %s. 🎉",
		target, res.ExpiresAt.In(s.loc).Format("15:04")), "mis reservas"), nil
}

func (s *chatService) finalizeReturn(ctx context.Context, sess *session.Session) (*ChatReply, error) {
	p := sess.Pending
	loan, err := s.loans.CloseLoan(ctx, p.LoanID, time.Time{})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if clearErr := s.sessions.Clear(ctx, sess.Requester); clearErr != nil {
				return nil, clearErr
			}
			return reply("No encontré ese préstamo. 😕", "mis prestamos"), nil
		}
		return nil, err
	}
	if err := s.sessions.Clear(ctx, sess.Requester); err != nil {
		return nil, err
	}
	hours := 0.0
	if loan.DurationHours != nil {
		hours = *loan.DurationHours
	}
	return reply(fmt.Sprintf("Devolución de %s registrada (%.2f h). ¡Gracias! 🙌", loan.ItemCode, hours), "mis prestamos"), nil
}
