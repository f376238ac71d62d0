package instrument

// Disclaimer is shown before consent is captured.
const Disclaimer = `本应用仅为心理健康筛查工具，并非专业医疗诊断仪器。
测试结果仅供信息参考，不构成任何医疗建议、诊断或治疗方案。
如果您正处于危机之中，有自伤、自杀的念头，或需要紧急援助，请立即联系校园辅导员、去医院就诊或拨打紧急求助电话。`

// frequencyOptions is the shared 0-3 frequency scale used by both inventories.
func frequencyOptions() []Option {
	return []Option{
		{Label: "完全不会", Value: 0},
		{Label: "好几天", Value: 1},
		{Label: "一半以上的天数", Value: 2},
		{Label: "几乎每天", Value: 3},
	}
}

func questions(texts ...string) []Question {
	qs := make([]Question, len(texts))
	for i, t := range texts {
		qs[i] = Question{ID: i + 1, Text: t, Options: frequencyOptions()}
	}
	return qs
}

func phq9() *Schema {
	return &Schema{
		ID:          PHQ9,
		ShortName:   "PHQ-9",
		Title:       "PHQ-9 (抑郁症筛查量表)",
		Description: "用于监测抑郁症状严重程度及治疗反应的标准化工具。",
		Questions: questions(
			"做事提不起劲或没有兴趣",
			"感到心情低落、抑郁或绝望",
			"入睡困难、睡不安稳或睡眠过多",
			"感觉疲倦或没有活力",
			"食欲不振或吃得太多",
			"觉得自己很糟，或觉得自己很失败，或让自己、家人失望",
			"对事物专注有困难，例如阅读报纸或看电视时",
			"行动或说话速度缓慢到别人已经察觉？或正好相反，烦躁或坐立不安，动来动去的情况比平常更明显",
			"有不如死掉或用某种方式伤害自己的念头",
		),
		Bands: []Band{
			{UpperBound: 4, Level: "无明显抑郁", Color: "#10b981", Advice: "请继续保持健康的生活习惯。"},
			{UpperBound: 9, Level: "轻度抑郁", Color: "#84cc16", Advice: "请关注情绪变化，尝试自我调节与放松。"},
			{UpperBound: 14, Level: "中度抑郁", Color: "#f59e0b", Advice: "建议咨询学校心理辅导员或专业人士。"},
			{UpperBound: 19, Level: "中重度抑郁", Color: "#f97316", Advice: "建议寻求专业心理咨询或医疗帮助。"},
			{UpperBound: 27, Level: "重度抑郁", Color: "#ef4444", Advice: "请立即就医或寻求紧急专业援助。"},
		},
	}
}

func gad7() *Schema {
	return &Schema{
		ID:          GAD7,
		ShortName:   "GAD-7",
		Title:       "GAD-7 (焦虑症筛查量表)",
		Description: "用于筛查广泛性焦虑障碍并测量其严重程度的标准化工具。",
		Questions: questions(
			"感觉紧张、焦虑或急切",
			"不能停止或无法控制担忧",
			"对各种各样的事情担忧过多",
			"很难放松下来",
			"由于坐立不安而无法静坐",
			"变得容易烦恼或急躁",
			"感到好像有什么可怕的事就要发生",
		),
		Bands: []Band{
			{UpperBound: 4, Level: "无明显焦虑", Color: "#10b981", Advice: "练习放松技巧，保持良好状态。"},
			{UpperBound: 9, Level: "轻度焦虑", Color: "#f59e0b", Advice: "观察引发焦虑的诱因，注意劳逸结合。"},
			{UpperBound: 14, Level: "中度焦虑", Color: "#f97316", Advice: "建议进行专业评估与咨询。"},
			{UpperBound: 21, Level: "重度焦虑", Color: "#ef4444", Advice: "很可能需要积极的治疗介入，请尽快就医。"},
		},
	}
}

func init() {
	schemas := []*Schema{phq9(), gad7()}
	if err := Validate(schemas...); err != nil {
		panic(err)
	}
	registry = buildRegistry(schemas)
}
