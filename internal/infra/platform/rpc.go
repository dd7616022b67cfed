package platform

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/port"
	"github.com/feder102/handball-agrupacion-api/internal/infra/logger"
)

const createMemberProcedure = "create_usuario"

// rpcPayload carries the stored procedure arguments. Parameter names are
// fixed by the database function signature.
type rpcPayload struct {
	PID        string      `json:"p_id"`
	PDocumento string      `json:"p_documento"`
	PEmail     string      `json:"p_email"`
	PNombre    string      `json:"p_nombre"`
	PTelefono  *string     `json:"p_telefono"`
	PRolNombre domainOrNil `json:"p_rol_nombre"`
}

// domainOrNil serializes an empty role as JSON null, matching what the
// procedure expects for "use the default".
type domainOrNil string

func (d domainOrNil) MarshalJSON() ([]byte, error) {
	if d == "" {
		return []byte("null"), nil
	}
	return []byte(`"` + string(d) + `"`), nil
}

// CreateMember invokes the privileged profile-creation procedure. The
// procedure validates document uniqueness, resolves the role, and inserts the
// profile plus identity-link rows in one transaction on the platform side.
func (c *Client) CreateMember(ctx context.Context, params port.MemberRPCParams) (map[string]any, error) {
	var phone *string
	if params.Phone != "" {
		phone = &params.Phone
	}

	body := rpcPayload{
		PID:        params.UserID,
		PDocumento: params.Document,
		PEmail:     params.Email,
		PNombre:    params.FullName,
		PTelefono:  phone,
		PRolNombre: domainOrNil(params.Role),
	}

	var data map[string]any
	if err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/"+createMemberProcedure, c.serviceRoleKey, body, &data); err != nil {
		return nil, err
	}

	c.logger.Info("profile RPC completed",
		zap.String("user_id", params.UserID),
		zap.String("document", logger.MaskDocument(params.Document)),
		zap.String("role", string(params.Role)),
	)

	return data, nil
}

var _ port.MemberRPC = (*Client)(nil)
