package phrases

var arabicTable = Table{
	Language: Arabic,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"اها", "ممم", "امم"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"نعم", "ايوه", "أيوه", "طيب", "تمام", "صح", "فاهم", "حسنا", "أكيد", "مضبوط"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"آه", "ما شاء الله", "والله"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"انتظر", "لحظة", "لحظة واحدة", "ثانية"}},
		{Phrases: []string{"عفوا", "آسف", "لكن", "في الحقيقة", "سؤال"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"توقف", "قف", "اسكت", "كفى", "لا لا لا"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"دعني أتكلم", "اسمعني", "عندي شيء أقوله"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"موضوع آخر", "سؤال آخر", "شيء آخر"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"توقف عن الكلام", "إلغاء", "الغاء", "انسى"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"إيقاف مؤقت", "توقف قليلا"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"استمر", "أكمل", "كمل"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"أعد", "كرر", "ممكن تعيد"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"بصوت أعلى", "ارفع الصوت"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"بصوت أخفض", "اخفض الصوت"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections:     []string{"لم أقل", "هذا ليس ما قلته", "هذا خطأ", "غير صحيح", "قصدت"},
	Clarifications:  []string{"ماذا تقصد", "ما معنى", "عفوا ماذا", "لم أفهم", "ممكن توضح", "ماذا"},
	Acknowledgments: []string{"تفضل.", "نعم؟", "أكيد، أنا أسمعك.", "بالطبع."},
}

var chineseTable = Table{
	Language: Chinese,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"嗯", "嗯嗯", "哦", "啊"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"对", "对对", "是的", "好", "好的", "行", "明白", "知道了", "没错", "可以"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"原来如此", "这样啊", "哇"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"等等", "等一下", "稍等"}},
		{Phrases: []string{"不好意思", "对不起", "但是", "其实", "我有个问题"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"停", "停下", "闭嘴", "够了", "不不不"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"让我说", "听我说", "我要说"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"换个话题", "另一个问题", "别的事"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"停止", "别说了", "不要说了", "取消", "算了"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"暂停"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"继续", "接着说"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"重复一下", "再说一遍", "再说一次"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"大声点", "大声一点"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"小声点", "小声一点"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"慢一点", "说慢点"}, CommandType: CommandSlower, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections:     []string{"我没说", "不是这个意思", "不对", "错了", "我的意思是"},
	Clarifications:  []string{"什么意思", "你是说", "什么", "啥", "我不明白", "能解释一下吗"},
	Acknowledgments: []string{"请说。", "嗯？", "好的，我在听。", "当然。"},
}

var japaneseTable = Table{
	Language: Japanese,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"うん", "ええ", "はい", "へえ"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"そうですね", "そうそう", "なるほど", "確かに", "分かりました", "了解", "そうなんだ", "たしかに"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"あ", "ああ", "へえそうなんだ", "すごい"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"ちょっと待って", "待って", "少々お待ちください"}},
		{Phrases: []string{"すみません", "あの", "でも", "実は", "質問があります"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"止めて", "やめて", "ストップ", "黙って", "もういい"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"話させて", "聞いて", "言いたいことがある"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"話を変えて", "別の質問", "別のこと"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"話すのをやめて", "キャンセル", "取り消し", "もういいです"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"一時停止"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"続けて", "続けてください"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"もう一度", "繰り返して"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"大きくして", "音量を上げて"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"小さくして", "音量を下げて"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"ゆっくり", "ゆっくり話して"}, CommandType: CommandSlower, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections:     []string{"そうは言ってない", "違います", "違う", "間違い", "そういう意味じゃない"},
	Clarifications:  []string{"どういう意味", "え", "何", "分かりません", "説明して"},
	Acknowledgments: []string{"どうぞ。", "はい？", "はい、聞いています。", "もちろんです。"},
}

var koreanTable = Table{
	Language: Korean,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"음", "응", "네", "예"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"그래요", "맞아요", "알겠어요", "그렇군요", "좋아요", "그래", "맞아", "알았어"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"아", "오", "아하", "와"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"잠깐만", "잠깐", "잠시만요"}},
		{Phrases: []string{"죄송한데", "저기요", "근데", "사실은", "질문이 있어요"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"그만", "멈춰", "조용히 해", "됐어", "아니 아니"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"내 말 좀 들어", "내가 말할게", "할 말이 있어"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"다른 얘기", "다른 질문", "화제를 바꾸자"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"그만 말해", "말하지 마", "취소", "됐어요"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"일시정지", "일시 정지"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"계속해", "계속하세요"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"다시 말해줘", "한 번 더"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"크게", "소리 키워"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"작게", "소리 줄여"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"천천히", "천천히 말해"}, CommandType: CommandSlower, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections:     []string{"그런 말 안 했어", "그게 아니라", "틀렸어", "잘못 이해했어", "내 말은"},
	Clarifications:  []string{"무슨 뜻이에요", "무슨 말이야", "뭐라고", "이해가 안 돼요", "설명해 줘"},
	Acknowledgments: []string{"말씀하세요.", "네?", "네, 듣고 있어요.", "물론이죠."},
}

var russianTable = Table{
	Language: Russian,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"угу", "ага", "мгм", "хм"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"да", "так", "ясно", "понятно", "хорошо", "ладно", "конечно", "точно", "верно", "окей"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"а", "о", "вот как", "интересно"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"подожди", "подождите", "секунду", "минутку"}},
		{Phrases: []string{"извините", "простите", "но", "вообще-то", "вопрос"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"стоп", "хватит", "замолчи", "остановись", "нет нет нет"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"дай мне сказать", "послушай меня", "мне нужно сказать"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"другая тема", "другой вопрос", "давай о другом"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"перестань говорить", "замолчи пожалуйста", "отмена", "отменить", "забудь"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"пауза"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"продолжай", "продолжайте", "дальше"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"повтори", "повторите", "ещё раз"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"громче"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"тише"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"медленнее", "говори медленнее"}, CommandType: CommandSlower, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections:     []string{"я не говорил", "я этого не говорил", "это неправильно", "это не так", "я имел в виду", "не совсем"},
	Clarifications:  []string{"что ты имеешь в виду", "что это значит", "что", "не понимаю", "можешь объяснить", "в смысле"},
	Acknowledgments: []string{"Говорите.", "Да?", "Конечно, слушаю.", "Разумеется."},
}

var hindiTable = Table{
	Language: Hindi,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"हम्म", "अच्छा", "हूं"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"हाँ", "हां", "जी", "जी हाँ", "ठीक है", "सही", "बिल्कुल", "समझ गया", "ओके"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"अरे", "ओह", "वाह"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"रुको", "एक मिनट", "एक सेकंड", "ज़रा रुको"}},
		{Phrases: []string{"माफ़ कीजिए", "सुनिए", "लेकिन", "असल में", "एक सवाल"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"बस", "रुक जाओ", "चुप", "बहुत हो गया", "नहीं नहीं नहीं"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"मुझे बोलने दो", "मेरी बात सुनो", "मुझे कुछ कहना है"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"विषय बदलो", "दूसरा सवाल", "कुछ और"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"बोलना बंद करो", "चुप हो जाओ", "रद्द करो", "छोड़ो"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"रोको", "पॉज़"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"जारी रखो", "आगे बोलो"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"फिर से बोलो", "दोहराओ"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"ज़ोर से", "आवाज़ बढ़ाओ"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"धीरे से", "आवाज़ कम करो"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections:     []string{"मैंने ऐसा नहीं कहा", "यह गलत है", "ऐसा नहीं है", "मेरा मतलब था"},
	Clarifications:  []string{"क्या मतलब", "आपका क्या मतलब है", "क्या", "समझ नहीं आया", "समझाइए"},
	Acknowledgments: []string{"बोलिए।", "जी?", "ज़रूर, मैं सुन रहा हूँ।", "बिल्कुल।"},
}

var turkishTable = Table{
	Language: Turkish,
	Backchannels: []BackchannelPattern{
		{Phrases: []string{"hı hı", "hmm", "ıhı"}, MaxDuration: shortBackchannel, ConfidenceMultiplier: 1.0},
		{Phrases: []string{"evet", "tamam", "peki", "doğru", "anladım", "olur", "tabii", "aynen", "kesinlikle"}, MaxDuration: longBackchannel, ConfidenceMultiplier: 0.95},
		{Phrases: []string{"ha", "öyle mi", "vay"}, MaxDuration: mediumBackchannel, ConfidenceMultiplier: 0.9},
	},
	SoftBarges: []SoftBargePattern{
		{Phrases: []string{"bekle", "bir saniye", "bir dakika"}},
		{Phrases: []string{"pardon", "affedersiniz", "ama", "aslında", "bir sorum var"}, RequiresFollowUp: true},
	},
	HardBarges: []HardBargePattern{
		{Phrases: []string{"dur", "yeter", "sus", "kes", "hayır hayır"}, Intent: IntentStop, Priority: PriorityHigh},
		{Phrases: []string{"bırak konuşayım", "beni dinle", "bir şey söylemem lazım"}, Intent: IntentProvideInfo, Priority: PriorityHigh},
		{Phrases: []string{"konuyu değiştir", "başka bir soru", "başka bir şey"}, Intent: IntentChangeTopic, Priority: PriorityHigh},
	},
	Commands: []CommandPattern{
		{Phrases: []string{"konuşmayı kes", "sus artık", "iptal", "iptal et", "boş ver"}, CommandType: CommandStop, Intent: IntentStop, Priority: PriorityCritical},
		{Phrases: []string{"duraklat"}, CommandType: CommandPause, Intent: IntentPause, Priority: PriorityHigh},
		{Phrases: []string{"devam et", "devam"}, CommandType: CommandResume, Intent: IntentContinue, Priority: PriorityMedium},
		{Phrases: []string{"tekrarla", "tekrar söyle"}, CommandType: CommandRepeat, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"daha yüksek", "sesi aç"}, CommandType: CommandVolumeUp, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"daha alçak", "sesi kıs"}, CommandType: CommandVolumeDown, Intent: IntentCommand, Priority: PriorityMedium},
		{Phrases: []string{"daha yavaş", "yavaş konuş"}, CommandType: CommandSlower, Intent: IntentCommand, Priority: PriorityMedium},
	},
	Corrections:     []string{"öyle demedim", "bu yanlış", "doğru değil", "demek istediğim", "tam olarak değil"},
	Clarifications:  []string{"ne demek istiyorsun", "ne demek", "efendim", "anlamadım", "açıklar mısın", "ne"},
	Acknowledgments: []string{"Buyurun.", "Evet?", "Tabii, dinliyorum.", "Elbette."},
}
