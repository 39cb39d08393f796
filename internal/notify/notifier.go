// Package notify sends fire-and-forget admin notifications over the chat
// providers. Delivery failures are logged and never surfaced to the workflow
// that triggered them.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Messenger delivers one message to one destination.
type Messenger interface {
	Send(ctx context.Context, to, body string) error
}

// AdminNotifier fans admin messages out to the configured channels.
// Channels with no client configured are skipped.
type AdminNotifier struct {
	whatsapp       Messenger
	whatsappTo     string
	telegram       Messenger
	telegramChatID string
	logger         *zap.Logger
}

// NewAdminNotifier wires the available channels. Either client may be nil.
func NewAdminNotifier(whatsapp Messenger, whatsappTo string, telegram Messenger, telegramChatID string, logger *zap.Logger) *AdminNotifier {
	return &AdminNotifier{
		whatsapp:       whatsapp,
		whatsappTo:     whatsappTo,
		telegram:       telegram,
		telegramChatID: telegramChatID,
		logger:         logger,
	}
}

// PartnerApproved announces a freshly approved partner to the admin channels.
func (n *AdminNotifier) PartnerApproved(ctx context.Context, partnerKey, partnerID string) {
	body := fmt.Sprintf("✅ Parceiro aprovado!\n\nCadastro: %s\nID do parceiro: %s", partnerKey, partnerID)
	n.dispatch(ctx, body)
}

// NewListing announces a new listing awaiting approval, mirroring the admin
// WhatsApp message of the original platform.
func (n *AdminNotifier) NewListing(ctx context.Context, partnerName, email, phone string) {
	body := fmt.Sprintf(
		"🔔 *Novo Anunciante Cadastrado* 🔔\n\n*Nome:* %s\n*Email:* %s\n*Telefone:* %s\n\nAcesse o painel de administrador para aprovar.",
		partnerName, email, phone)
	n.dispatch(ctx, body)
}

// dispatch sends to every configured channel, waiting for all of them so a
// slow channel still gets its error logged before the context is released.
func (n *AdminNotifier) dispatch(ctx context.Context, body string) {
	var g errgroup.Group

	if n.whatsapp != nil {
		g.Go(func() error {
			if err := n.whatsapp.Send(ctx, n.whatsappTo, body); err != nil {
				n.logger.Error("whatsapp notification failed", zap.Error(err))
			}
			return nil
		})
	}
	if n.telegram != nil {
		g.Go(func() error {
			if err := n.telegram.Send(ctx, n.telegramChatID, body); err != nil {
				n.logger.Error("telegram notification failed", zap.Error(err))
			}
			return nil
		})
	}

	_ = g.Wait()
}
