package advisory

import (
	"fmt"
	"strings"
)

const systemPrompt = `你是一位富有同理心、专业的大学心理健康助手。

请提供一段支持性、非临床的中文总结建议。

限制条件:
1. 绝对不要给出医疗诊断。使用"你的回答显示..."、"分数表明..."等措辞。
2. 语气要亲切、平和、富有同理心（中文）。
3. 如果分数较高（中重度/重度），必须强烈建议去学校心理咨询中心寻求专业帮助。
4. 根据其具体分数情况，提供 3 个具体、可执行的自我关怀小建议（例如针对抑郁的睡眠卫生，针对焦虑的呼吸法等）。
5. 如果分数显示严重困扰需要立即关注，将 isCrisis 设为 true。

请仅返回符合所给 Schema 的 JSON 数据。`

// buildUserMessage renders the summaries as one line per instrument. It
// reads nothing but the Request, so answers cannot reach the prompt.
func buildUserMessage(req Request) string {
	var b strings.Builder

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = "同学"
	}
	fmt.Fprintf(&b, "一位名叫 %q 的同学完成了心理筛查，结果如下：\n", name)

	for _, s := range req.Summaries {
		fmt.Fprintf(&b, "- %s: Score %d/%d (%s)\n", s.ScaleID, s.Score, s.MaxScore, s.SeverityLabel)
	}

	return b.String()
}
