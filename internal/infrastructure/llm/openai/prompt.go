package openai

import (
	"fmt"
	"strings"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

const jsonOnlySystem = "出力は有効なJSONのみ。余計な文字や説明は禁止。必ず単一のJSONで応答すること。"

func buildRecommendationPrompt(categories, excluded []string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "今日読むべき本を%d冊推薦してください。除外リストに含まれる書籍やその類似書は選ばないでください。\n", count)
	if len(excluded) > 0 {
		b.WriteString("除外リスト:\n")
		for _, t := range excluded {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	fmt.Fprintf(&b, "カテゴリは次の中から必ず1つ選んでください: %s\n", strings.Join(categories, ","))
	b.WriteString("小説・フィクションは推薦対象から除外してください。\n")
	b.WriteString("重要: titleとauthorは必ず日本語で記載してください（邦題・日本語著者表記）。英語・ローマ字・原題は書かないでください。邦題が国内で未流通・不明な場合はその候補を推薦しないこと。\n")
	b.WriteString(`出力は {"candidates": [...]} のJSONオブジェクトで、candidatesの各要素に title, author, category, reason の4項目のみを含めてください。`)
	return b.String()
}

func buildResearchPrompt(title, author string, strict bool) string {
	var b strings.Builder
	b.WriteString("あなたは熟練した書籍アナリストです。以下の書籍について詳細な調査レポートを日本語で作成してください。\n\n")
	fmt.Fprintf(&b, "書籍名: %s\n著者名: %s\n\n", title, author)
	b.WriteString(`出力は有効なJSONオブジェクト1つのみ。キーは次の5つに限定:
- core_message: 核心的メッセージ（文字列）
- executive_summary: {question, answer, evidence} 要約＝問い×答え×根拠の形式で、そこさえ見れば本を読まずとも理解できるようにまとめる
- key_concepts: [{name, definition}] 主要概念を1〜2文で定義
- related_books: [{title, author, relevance}] 関連書籍となぜ関連するか
- today_actions: 文字列の配列。読後すぐに15〜30分で実行できる行動。日本語、動詞で始める。1件30文字以内、ちょうど3件
`)
	if strict {
		b.WriteString("\n重要: 前回の出力は構造が不正でした。上記5キーをすべて含め、today_actionsは必ず空でない3件の配列にしてください。マークダウンや説明文は一切含めないでください。\n")
	}
	return b.String()
}

func buildRenderPrompt(record *domain.ResearchRecord, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "次の調査レポートをもとに、書籍「%s」のインフォグラフィックを1枚のHTMLとして作成してください。\n\n", title)
	b.WriteString("要件:\n")
	b.WriteString("- 完全に自己完結したHTML1ファイル（CSS/JSはすべてインライン）\n")
	b.WriteString("- 外部リソース参照（CDN、画像URL、Webフォント、script src）は禁止\n")
	b.WriteString("- 出力はHTMLのみ。説明文やコードフェンスは不要\n\n")
	fmt.Fprintf(&b, "核心的メッセージ: %s\n\n", record.CoreMessage)
	fmt.Fprintf(&b, "要約: 問い: %s / 答え: %s / 根拠: %s\n\n",
		record.ExecutiveSummary.Question, record.ExecutiveSummary.Answer, record.ExecutiveSummary.Evidence)
	if len(record.KeyConcepts) > 0 {
		b.WriteString("主要概念:\n")
		for _, kc := range record.KeyConcepts {
			fmt.Fprintf(&b, "- %s: %s\n", kc.Name, kc.Definition)
		}
		b.WriteString("\n")
	}
	if len(record.TodayActions) > 0 {
		b.WriteString("今日できるアクション:\n")
		for _, a := range record.TodayActions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	return b.String()
}
