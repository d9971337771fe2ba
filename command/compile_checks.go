package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ConnectMessage]          = (*ConnectCommand)(nil)
	_ gocmd.Commander[CompleteCallbackMessage] = (*CompleteCallbackCommand)(nil)
	_ gocmd.Commander[ExchangeCodeMessage]     = (*ExchangeCodeCommand)(nil)
	_ gocmd.Commander[RefreshMessage]          = (*RefreshCommand)(nil)
	_ gocmd.Commander[LogoutMessage]           = (*LogoutCommand)(nil)
	_ gocmd.Commander[CreateLeadMessage]       = (*CreateLeadCommand)(nil)
	_ gocmd.Commander[UpdateLeadMessage]       = (*UpdateLeadCommand)(nil)
	_ gocmd.Commander[DeleteLeadMessage]       = (*DeleteLeadCommand)(nil)
)
