package handler

import (
	"log"
	"time"

	"github.com/palemoky/scatters/internal/protocol"
)

// handleName 玩家报上用户名。用户名被别的连接占着时拒绝。
func (h *Handler) handleName(client Client, msg *protocol.Message) {
	payload, ok := parsePayload[protocol.NamePayload](client, msg)
	if !ok {
		return
	}
	if payload.Name == "" {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeInvalidMsg, "name must not be empty"))
		return
	}

	if !h.gateway.BindName(client, payload.Name) {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeInvalidMsg, "name already taken"))
		return
	}

	h.presence.Touch(payload.Name)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID: client.GetID(),
	}))

	log.Printf("👤 客户端 %s 报名为 %s", client.GetID(), payload.Name)
}

// handlePing 心跳
func (h *Handler) handlePing(client Client, msg *protocol.Message) {
	payload, ok := parsePayload[protocol.PingPayload](client, msg)
	if !ok {
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}
