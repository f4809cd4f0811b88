package email

import (
	"fmt"
	"time"
)

// ReviewReminderData holds data for the review-due reminder template
type ReviewReminderData struct {
	AppName     string
	UserName    string
	Statement   string
	ReviewDueAt string
}

// SendReviewReminderEmail tells a user one of their decisions is due for
// its retrospective.
func (s *Service) SendReviewReminderEmail(to, userName, statement string, reviewDueAt time.Time) error {
	data := ReviewReminderData{
		AppName:     "Prism",
		UserName:    userName,
		Statement:   statement,
		ReviewDueAt: reviewDueAt.Format("2006-01-02"),
	}

	subject := "该复盘你的决策了"
	html, err := renderTemplate(reviewReminderEmailTemplate, data)
	if err != nil {
		return fmt.Errorf("render review reminder template: %w", err)
	}

	return s.SendHTMLEmail([]string{to}, subject, html)
}

const reviewReminderEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.AppName}} 复盘提醒</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .statement { background: #f5f7fa; padding: 16px; border-radius: 4px; margin: 20px 0; font-size: 16px; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>

    <h2>{{.UserName}}，你好</h2>

    <p>你在 {{.AppName}} 记录的一个决策已经到了约定的复盘时间（{{.ReviewDueAt}}）：</p>

    <div class="statement">{{.Statement}}</div>

    <p>花几分钟回顾一下：实际结果和你的预期相比如何？打开 {{.AppName}} 完成复盘，让每一次决策都变成经验。</p>

    <div class="footer">
        <p>这是一封自动提醒邮件，每个决策只会提醒一次。</p>
    </div>
</body>
</html>`
