package automation

import "amoita/internal/domain/messaging"

// seedDefaultTemplates installs the stock guest-communication set: booking
// confirmation (immediate), check-in reminder (1 day before), check-out
// reminder (2 hours before) and post-stay thank-you (1 day after).
func (m *Manager) seedDefaultTemplates() {
	for _, t := range defaultTemplates() {
		m.CreateTemplate(t)
	}
}

func defaultTemplates() []messaging.Template {
	return []messaging.Template{
		{
			Name:    "Confirmação de Reserva",
			Subject: "Reserva Confirmada - A Moita",
			Content: `Olá {{guestName}},

Sua reserva foi confirmada com sucesso!

Detalhes da Reserva:
- Check-in: {{checkInDate}} às {{checkInTime}}
- Check-out: {{checkOutDate}} às {{checkOutTime}}
- Hóspedes: {{guests}}
- Total: {{totalAmount}}

Estamos ansiosos para recebê-lo(a) na A Moita!

Atenciosamente,
Equipe A Moita`,
			Trigger: messaging.Trigger{
				Type:   messaging.TriggerBookingConfirmed,
				Timing: messaging.TimingImmediate,
			},
			Language: messaging.LanguagePT,
			Active:   true,
			Variables: []string{
				"guestName", "checkInDate", "checkOutDate", "checkInTime",
				"checkOutTime", "guests", "totalAmount",
			},
		},
		{
			Name:    "Lembrete Check-in",
			Subject: "Lembrete: Check-in Amanhã - A Moita",
			Content: `Olá {{guestName}},

Lembramos que seu check-in na A Moita é amanhã, {{checkInDate}} às {{checkInTime}}.

Estamos preparando tudo para sua chegada. Em caso de dúvidas, entre em contato conosco.

Até breve!
Equipe A Moita`,
			Trigger: messaging.Trigger{
				Type:   messaging.TriggerCheckInReminder,
				Timing: messaging.TimingDaysBefore,
				Offset: 1,
			},
			Language:  messaging.LanguagePT,
			Active:    true,
			Variables: []string{"guestName", "checkInDate", "checkInTime"},
		},
		{
			Name:    "Lembrete Check-out",
			Subject: "Lembrete: Check-out Hoje - A Moita",
			Content: `Olá {{guestName}},

Lembramos que seu check-out é hoje, {{checkOutDate}} às {{checkOutTime}}.

Esperamos que tenha aproveitado sua estadia na A Moita!

Atenciosamente,
Equipe A Moita`,
			Trigger: messaging.Trigger{
				Type:   messaging.TriggerCheckOutReminder,
				Timing: messaging.TimingHoursBefore,
				Offset: 2,
			},
			Language:  messaging.LanguagePT,
			Active:    true,
			Variables: []string{"guestName", "checkOutDate", "checkOutTime"},
		},
		{
			Name:    "Agradecimento Pós-Estadia",
			Subject: "Obrigado pela Visita - A Moita",
			Content: `Olá {{guestName}},

Obrigado por escolher a A Moita para sua estadia!

Esperamos que tenha tido uma experiência incrível conosco. Sua opinião é muito importante para nós.

Ficaremos felizes em recebê-lo(a) novamente em breve!

Com carinho,
Equipe A Moita`,
			Trigger: messaging.Trigger{
				Type:   messaging.TriggerPostStay,
				Timing: messaging.TimingDaysAfter,
				Offset: 1,
			},
			Language:  messaging.LanguagePT,
			Active:    true,
			Variables: []string{"guestName"},
		},
	}
}
