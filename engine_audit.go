package tokengate

import (
	"context"
	"time"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	jti string,
	userID string,
	resource string,
	reason Reason,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		JTI:       jti,
		UserID:    userID,
		Resource:  resource,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if reason != ReasonNone {
		event.Reason = reason.String()
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitValidation(ctx context.Context, result ValidationResult) {
	if e == nil || e.audit == nil {
		return
	}

	var jti, userID, resource string
	if result.Claims != nil {
		jti = result.Claims.JTI
		userID = result.Claims.UserID
		resource = result.Claims.URL
	}

	eventType := auditEventTokenValidated
	if !result.Valid {
		eventType = auditEventTokenDenied
	}
	e.emitAudit(ctx, eventType, result.Valid, jti, userID, resource, result.Reason, nil)
}
