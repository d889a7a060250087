package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pedeja/pedeja-backend/internal/models"
)

// All customer-facing texts of the ordering flow. The channel speaks pt-BR;
// failures never leak internal detail here (that goes to the logs).

func replyAskFirstName(storeName string) string {
	return fmt.Sprintf("👋 Olá! Bem-vindo ao *%s*.\n\nPara começarmos, por favor digite seu *NOME*:", storeName)
}

func replyMenuGreeting(firstName, storeName string) string {
	return fmt.Sprintf("👋 Olá *%s*! Bem-vindo ao *%s* 🍕.\n\nSou seu assistente virtual. Digite o número da opção:\n\n1️⃣ *Ver Cardápio*\n2️⃣ *Falar com Atendente*", firstName, storeName)
}

func replyNameSaved(name string) string {
	return fmt.Sprintf("Prazer, *%s*! Agora sim.\n\nDigite o número da opção:\n\n1️⃣ *Ver Cardápio*\n2️⃣ *Falar com Atendente*", name)
}

const replyNameTooShort = "Nome muito curto. Por favor, digite seu nome completo ou apelido."

const replyNameCheckoutTooShort = "Nome muito curto. Tente novamente."

func replyNameCheckoutSaved(name string) string {
	return fmt.Sprintf("Obrigado, *%s*! \n\n📍 *Entrega:* Envie sua *LOCALIZAÇÃO* do WhatsApp ou digite seu Endereço completo.", name)
}

const replyMenuFallback = "Digite *1* para ver o cardápio ou *2* para ajuda."

const replyAskName = "📝 Antes de continuar, digite seu *NOME*:"

const replyAddressPrompt = "📍 *Entrega:* Envie sua *LOCALIZAÇÃO* do WhatsApp (clipe -> Localização) ou digite seu Endereço completo."

const replyEmptyCart = "Seu carrinho está vazio! Peça algo antes de finalizar."

const replyEmptyMenu = "😔 Cardápio vazio."

const replyBuilderFirstFlavor = "🍕 *Montar Pizza Meio a Meio*\n\nDigite o nome do **1º SABOR**:"

func replyAskSecondFlavor(name string) string {
	return fmt.Sprintf("🍕 Você escolheu *%s*.\n\nQuer adicionar um 2º sabor (Meio a Meio)?\nDigite o nome do 2º sabor ou *\"NÃO\"* para pedir inteira.", name)
}

func replyFirstFlavorSet(name string) string {
	return fmt.Sprintf("✔️ 1º Sabor: %s\n\nAgora digite o **2º SABOR**:", name)
}

const replyFlavorNotFound = "❌ Sabor não encontrado nas Pizzas. Tente novamente ou digite *CANCELAR*."

const replySecondFlavorNotFound = "❌ Sabor não encontrado. Digite o nome do 2º sabor ou *\"NÃO\"* para pedir inteira."

const replySessionRecovered = "⚠️ Tivemos um problema com seu pedido. Por favor, recomece digitando *MENU*."

func replyLineAdded(qty int, name string, runningTotal float64) string {
	return fmt.Sprintf("✅ *Adicionado:* %dx %s\n🛒 *Total Parcial:* R$ %.2f\n\nDigite o nome de mais produtos ou *FINALIZAR*.", qty, name, runningTotal)
}

func replySingleFlavorAdded(name string, price float64) string {
	return fmt.Sprintf("✅ Adicionado: 1x %s\n💲 R$ %.2f\n\nMais alguma coisa? Digite o nome ou *FINALIZAR*.", name, price)
}

func replyPizzaBuilt(first, second string, price float64) string {
	return fmt.Sprintf("🍕 Pizza Montada!\n\n1/2 %s & 1/2 %s\n💲 Valor: R$ %.2f\n\nDigite mais produtos ou *FINALIZAR*.", first, second, price)
}

const replyProductNotFound = "🤔 Não encontrei esse produto no cardápio.\n\nDigite o nome do lanche (ex: \"X-Burger\") ou *FINALIZAR*."

func replyLocationReceived(fee float64) string {
	return fmt.Sprintf("✅ Localização recebida (Frete: R$ %.2f).\n\nAgora digite o *NÚMERO DA CASA* e complemento (se houver):", fee)
}

const replyTextAddressSaved = "Certo! Agora digite o *NÚMERO DA CASA* e complemento:"

const replyAskReference = "Ok. Tem algum *PONTO DE REFERÊNCIA*? (Ou digite 'Não')"

const replyPaymentPrompt = "💳 *Forma de Pagamento*\n\nEscolha a opção:\n\n1️⃣ *Pix* (Chave enviada no final)\n2️⃣ *Dinheiro*\n3️⃣ *Cartão* (Maquininha)"

const replyPaymentInvalid = "❌ Opção inválida. Digite:\n1️⃣ Pix\n2️⃣ Dinheiro\n3️⃣ Cartão"

func replyOrderSummary(s *models.Session) string {
	var b strings.Builder
	b.WriteString("📝 *Resumo do Pedido*\n\n")
	for _, line := range s.Cart {
		fmt.Fprintf(&b, "%dx %s\n", line.Quantity, line.Name)
	}
	fmt.Fprintf(&b, "\n🛵 Entrega: R$ %.2f", s.DeliveryFee)
	fmt.Fprintf(&b, "\n💳 Pagamento: %s", models.PaymentLabels[s.PaymentMethod])
	fmt.Fprintf(&b, "\n💰 *Total: R$ %.2f*", s.Total)
	fmt.Fprintf(&b, "\n\n📍 Endereço: %s", s.Address)
	b.WriteString("\n\n✅ Digite *OK* para confirmar ou *CANCELAR*.")
	return b.String()
}

func replyOrderConfirmed(orderNumber int) string {
	return fmt.Sprintf("🎉 *Pedido #%d Recebido!* \n\nA cozinha já está preparando. Te aviso quando sair para entrega! 🛵", orderNumber)
}

const replyOrderCancelled = "Pedido Cancelado. Digite *MENU* para começar de novo."

const replyAgentCalled = "✅ Atendente chamado! Aguarde um momento."

// renderMenu formats the catalog grouped by category with pt-BR headings.
func renderMenu(storeName string, products []*models.Product) string {
	if len(products) == 0 {
		return replyEmptyMenu
	}

	grouped := make(map[string][]*models.Product)
	var categories []string
	for _, p := range products {
		if _, seen := grouped[p.Category]; !seen {
			categories = append(categories, p.Category)
		}
		grouped[p.Category] = append(grouped[p.Category], p)
	}
	sort.Strings(categories)

	var b strings.Builder
	fmt.Fprintf(&b, "*🍕 CARDÁPIO %s 🥤*\n\n", strings.ToUpper(storeName))
	for _, cat := range categories {
		label := models.CategoryLabels[cat]
		if label == "" {
			label = cat
		}
		fmt.Fprintf(&b, "*%s*\n", label)
		for _, p := range grouped[cat] {
			fmt.Fprintf(&b, "- %s: R$ %.2f\n", p.Name, p.Price)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n📝 *Como pedir:* Digite o nome do produto e a quantidade.")
	return b.String()
}

// Driver notification sent by the operator API, not by the bot flow.
func driverNotification(order *models.Order) string {
	return fmt.Sprintf("🛵 *Nova Entrega para Você!*\n\n*Pedido #:* %d\n*Cliente:* %s\n*Endereço:* %s\n*Total:* R$ %.2f\n\nPor favor, confirme o recebimento no app.",
		order.OrderNumber, order.ClientName, order.DeliveryAddress, order.Total)
}
