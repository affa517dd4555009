package worker

import (
	"fmt"
	"strings"

	"hrbot/internal/database"
	"hrbot/internal/telegram"
)

// applicationSummary 生成发给 HR 的申请摘要（按产品语言，乌兹别克语）。
// 空的可选字段不出现在摘要里。
func applicationSummary(app database.Application) string {
	parts := []string{
		fmt.Sprintf("🆕 Yangi ariza #%d", app.ID),
		fmt.Sprintf("👤 F.I.SH: %s", app.FullName),
		fmt.Sprintf("📞 Telefon: %s", app.Phone),
	}

	if app.BirthDate != nil {
		parts = append(parts, fmt.Sprintf("🎂 Tug‘ilgan sana: %s", app.BirthDate.Format("02.01.2006")))
	}
	if app.Nationality != "" {
		parts = append(parts, fmt.Sprintf("🌍 Millat: %s", app.Nationality))
	}
	if app.Address != "" {
		parts = append(parts, fmt.Sprintf("📍 Manzil: %s", app.Address))
	}
	if app.Gender != "" {
		parts = append(parts, fmt.Sprintf("🚻 Jins: %s", app.Gender))
	}

	if app.PrevJob != "" {
		parts = append(parts, fmt.Sprintf("🏢 Oldin ishlagan joy: %s", app.PrevJob))
	}
	if app.PrevJobDuration != "" {
		parts = append(parts, fmt.Sprintf("⏳ Ish muddati: %s", app.PrevJobDuration))
	}
	if app.PrevJobLeaveReason != "" {
		parts = append(parts, fmt.Sprintf("📌 Nega bo‘shagan: %s", app.PrevJobLeaveReason))
	}

	married := "Yo‘q"
	if app.IsMarried {
		married = "Ha"
	}
	parts = append(parts, fmt.Sprintf("💍 Oilali: %s", married))

	if app.Source != "" {
		parts = append(parts, fmt.Sprintf("🔎 Qayerdan bildi: %s", app.Source))
	}
	if app.DesiredSalary != "" {
		parts = append(parts, fmt.Sprintf("💰 Istagan maosh: %s", app.DesiredSalary))
	}
	if app.WhyHireFacts != "" {
		parts = append(parts, fmt.Sprintf("⭐ Nega ishga olish kerak: %s", app.WhyHireFacts))
	}

	parts = append(parts, "\nBot orqali ko‘rish: HR menyu → Arizalar")
	return strings.Join(parts, "\n")
}

// photoCaption 生成照片消息的说明文字。
func photoCaption(app database.Application) string {
	return fmt.Sprintf("📸 Rasm yuklandi — Ariza #%d\n", app.ID) + applicationSummary(app)
}

// hrOpenMarkup 生成 inline 键盘，bot 按 hr:open:<id> 回调打开卡片。
func hrOpenMarkup(applicationID uint) *telegram.ReplyMarkup {
	return &telegram.ReplyMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{
					Text:         "👀 Ko‘rish",
					CallbackData: fmt.Sprintf("hr:open:%d", applicationID),
				},
			},
		},
	}
}

// statusMessage 返回发给候选人的状态通知，四个已知状态各有模板，其余走兜底。
func statusMessage(status database.ApplicationStatus) string {
	switch status {
	case database.StatusAccepted:
		return "✅ Arizangiz qabul qilindi!\n\nTez orada siz bilan bog‘lanamiz."
	case database.StatusRejected:
		return "❌ Afsus, arizangiz rad etildi.\n\nKeyingi safar omad!"
	case database.StatusInReview:
		return "🕒 Arizangiz ko‘rib chiqilmoqda.\n\nTez orada javob beramiz."
	}
	return "ℹ️ Arizangiz holati yangilandi."
}
